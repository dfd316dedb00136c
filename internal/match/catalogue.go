package match

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// CatalogueEntry is one role description in the fixed matching catalogue.
// The catalogue is read-only after process start.
type CatalogueEntry struct {
	Role        string `mapstructure:"role"`
	Description string `mapstructure:"description"`
}

// DefaultCatalogue returns the built-in role catalogue used when the
// configuration provides no override.
func DefaultCatalogue() []CatalogueEntry {
	return []CatalogueEntry{
		{
			Role: "Senior Software Engineer",
			Description: "Design and build scalable backend services, REST APIs, microservices. " +
				"Proficient in Python, Java, or Go. Experience with CI/CD, Docker, Kubernetes. " +
				"Strong system design and code review skills.",
		},
		{
			Role: "Data Scientist",
			Description: "Develop machine-learning models, perform statistical analysis, build data pipelines. " +
				"Proficient in Python, pandas, scikit-learn, TensorFlow. " +
				"Experience with A/B testing and experiment design.",
		},
		{
			Role: "Machine Learning Engineer",
			Description: "Deploy ML models to production, build feature stores, optimise inference latency. " +
				"Proficient in Python, PyTorch, MLflow, Docker. Strong software engineering fundamentals.",
		},
		{
			Role: "DevOps / Platform Engineer",
			Description: "Build and maintain CI/CD pipelines, infrastructure as code (Terraform, CloudFormation). " +
				"Manage Kubernetes clusters, monitoring, and alerting. Strong Linux and networking skills.",
		},
		{
			Role: "Frontend Developer",
			Description: "Build responsive web applications with React, Vue, or Angular. " +
				"Proficient in TypeScript, HTML/CSS, and state management. " +
				"Experience with design systems and accessibility best practices.",
		},
		{
			Role: "Full Stack Developer",
			Description: "Work across frontend and backend, building end-to-end features. " +
				"Proficient in JavaScript/TypeScript, Python, databases (SQL & NoSQL). " +
				"Experience with cloud services.",
		},
		{
			Role: "Product Manager",
			Description: "Define product roadmap, prioritise features, work with engineering and design teams. " +
				"Strong analytical skills, user research, A/B testing, stakeholder communication.",
		},
		{
			Role: "Data Analyst",
			Description: "Analyse business data, build dashboards and reports. " +
				"Proficient in SQL, Excel, Tableau/Power BI. " +
				"Experience with statistical analysis and data visualisation.",
		},
		{
			Role: "AI / NLP Engineer",
			Description: "Build NLP pipelines, fine-tune large language models, develop RAG systems. " +
				"Proficient in Python, LangChain, Hugging Face, vector databases. " +
				"Research background is a plus.",
		},
		{
			Role: "University Lecturer / Researcher",
			Description: "Teach courses in computer science or related fields. " +
				"Publish research papers, supervise students, apply for grants. PhD required. " +
				"Strong communication and presentation skills.",
		},
	}
}

// DecodeCatalogue converts a configuration value (a list of maps with role
// and description keys) into catalogue entries, rejecting incomplete ones.
func DecodeCatalogue(value any) ([]CatalogueEntry, error) {
	var entries []CatalogueEntry
	if err := mapstructure.Decode(value, &entries); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	for i, entry := range entries {
		if entry.Role == "" || entry.Description == "" {
			return nil, fmt.Errorf("catalogue entry %d: role and description are required", i)
		}
	}
	return entries, nil
}
