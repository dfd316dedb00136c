// Package profile defines the structured data extracted from a CV.
package profile

import (
	"fmt"
	"strings"
)

// Skill proficiency levels accepted from the extractor.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

// Skill is one skill with an estimated proficiency level.
type Skill struct {
	Name  string  `json:"name"`
	Level string  `json:"level"`
	Years float64 `json:"years,omitempty"`
}

// Experience is one work experience entry.
type Experience struct {
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Duration     string   `json:"duration"`
	Domain       string   `json:"domain"`
	Highlights   []string `json:"highlights"`
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Profile is the structured extraction of one CV. Immutable once produced;
// a re-run of the pipeline creates a new instance.
type Profile struct {
	CandidateName string       `json:"candidate_name"`
	Email         string       `json:"email"`
	Summary       string       `json:"summary"`
	Skills        []Skill      `json:"skills"`
	Experience    []Experience `json:"experience"`
	Education     []Education  `json:"education"`
	QualityScore  float64      `json:"quality_score"`
}

// Validate checks required fields, normalises skill levels and clamps the
// quality score into [0,100]. Optional fields default rather than fail.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.CandidateName) == "" {
		return fmt.Errorf("candidate name is required")
	}
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("summary is required")
	}

	if p.QualityScore < 0 {
		p.QualityScore = 0
	}
	if p.QualityScore > 100 {
		p.QualityScore = 100
	}

	for i := range p.Skills {
		if !validLevel(p.Skills[i].Level) {
			p.Skills[i].Level = LevelIntermediate
		}
	}
	for i := range p.Experience {
		if strings.TrimSpace(p.Experience[i].Organization) == "" {
			p.Experience[i].Organization = "Unknown"
		}
	}

	return nil
}

func validLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	default:
		return false
	}
}

// SkillNames returns the comma separated skill list used in prompts and
// match queries.
func (p *Profile) SkillNames() string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
