// Package recommend turns an extracted profile and its role matches into
// prioritized improvement suggestions.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/match"
	"github.com/cvinsight/cv-insight/internal/profile"
)

// Recommendation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// fallbackMaxLength caps the raw model text reused as a fallback suggestion.
const fallbackMaxLength = 500

//go:embed prompt.md
var promptTemplate string

// Recommendation is one actionable CV improvement.
type Recommendation struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// Recommender drives the recommendation stage of the pipeline.
type Recommender struct {
	gen    ai.Generator
	logger *zap.Logger
}

// New creates a recommender backed by the given text generator.
func New(gen ai.Generator, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{gen: gen, logger: logger}
}

// Generate produces recommendations for the profile and matches. Malformed
// model output never propagates: the raw text degrades into a single
// general recommendation, so the result is always non-empty.
func (r *Recommender) Generate(ctx context.Context, p *profile.Profile, matches []match.Match) ([]Recommendation, error) {
	prompt := r.buildPrompt(p, matches)

	raw, err := r.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	recs, parseErr := parseRecommendations(raw)
	if parseErr != nil {
		r.logger.Warn("recommendation output unparsable, using fallback", zap.Error(parseErr))
		return []Recommendation{fallback(raw)}, nil
	}

	if len(recs) < 5 || len(recs) > 10 {
		r.logger.Debug("recommendation count outside instructed bounds",
			zap.Int("count", len(recs)),
		)
	}
	return recs, nil
}

func (r *Recommender) buildPrompt(p *profile.Profile, matches []match.Match) string {
	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		skills = append(skills, fmt.Sprintf("%s (%s)", s.Name, s.Level))
	}

	experience := make([]string, 0, len(p.Experience))
	for _, e := range p.Experience {
		experience = append(experience, fmt.Sprintf("%s at %s (%s)", e.Title, e.Organization, e.Duration))
	}

	education := make([]string, 0, len(p.Education))
	for _, ed := range p.Education {
		education = append(education, fmt.Sprintf("%s, %s", ed.Degree, ed.Institution))
	}

	matchLines := make([]string, 0, len(matches))
	for _, m := range matches {
		matchLines = append(matchLines, fmt.Sprintf("- %s (similarity: %.3f)", m.Role, m.Similarity))
	}

	replacements := map[string]string{
		"{{CANDIDATE}}":  p.CandidateName,
		"{{SCORE}}":      fmt.Sprintf("%.1f", p.QualityScore),
		"{{SKILLS}}":     orNone(strings.Join(skills, ", ")),
		"{{EXPERIENCE}}": orNone(strings.Join(experience, "; ")),
		"{{EDUCATION}}":  orNone(strings.Join(education, "; ")),
		"{{MATCHES}}":    orNone(strings.Join(matchLines, "\n")),
	}

	prompt := promptTemplate
	for key, value := range replacements {
		prompt = strings.ReplaceAll(prompt, key, value)
	}
	return prompt
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func parseRecommendations(raw string) ([]Recommendation, error) {
	cleaned := stripFences(raw)

	var recs []Recommendation
	if err := json.Unmarshal([]byte(cleaned), &recs); err != nil {
		return nil, fmt.Errorf("parse recommendation array: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty recommendation array")
	}

	for i, rec := range recs {
		if strings.TrimSpace(rec.Category) == "" || strings.TrimSpace(rec.Suggestion) == "" {
			return nil, fmt.Errorf("recommendation %d: category and suggestion are required", i)
		}
		switch rec.Priority {
		case PriorityLow, PriorityMedium, PriorityHigh:
		default:
			return nil, fmt.Errorf("recommendation %d: invalid priority %q", i, rec.Priority)
		}
	}
	return recs, nil
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(cleaned, "`"))
}

func fallback(raw string) Recommendation {
	suggestion := strings.TrimSpace(raw)
	if runes := []rune(suggestion); len(runes) > fallbackMaxLength {
		suggestion = string(runes[:fallbackMaxLength])
	}
	return Recommendation{
		Category:   "General",
		Suggestion: suggestion,
		Priority:   PriorityMedium,
	}
}
