// Package pipeline sequences the CV analysis stages: chunk, extract,
// match, recommend.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/chunker"
	"github.com/cvinsight/cv-insight/internal/document"
	"github.com/cvinsight/cv-insight/internal/match"
	"github.com/cvinsight/cv-insight/internal/profile"
	"github.com/cvinsight/cv-insight/internal/recommend"
)

// matchTopK is the number of catalogue roles retrieved per analysis.
const matchTopK = 5

// fallbackQuery keeps the index from being queried with an empty string
// when the extraction carries no usable text.
const fallbackQuery = "general professional"

// Extractor is the structured extraction stage.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*profile.Profile, error)
}

// RoleMatcher is the similarity matching stage.
type RoleMatcher interface {
	Match(ctx context.Context, query string, topK int) ([]match.Match, error)
}

// Recommender is the suggestion generation stage.
type Recommender interface {
	Generate(ctx context.Context, p *profile.Profile, matches []match.Match) ([]recommend.Recommendation, error)
}

// Result is the assembled outcome of one analysis run. A new instance is
// produced per invocation; nothing is memoized.
type Result struct {
	DocumentID      string                        `json:"document_id"`
	CandidateName   string                        `json:"candidate_name"`
	Email           string                        `json:"email"`
	Summary         string                        `json:"summary"`
	Skills          []profile.Skill               `json:"skills"`
	Experience      []profile.Experience          `json:"experience"`
	Education       []profile.Education           `json:"education"`
	Matches         []match.Match                 `json:"matches"`
	Recommendations []recommend.Recommendation    `json:"recommendations"`
	QualityScore    float64                       `json:"quality_score"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}

// Pipeline orchestrates the full analysis over the shared document store.
type Pipeline struct {
	store       *document.Store
	chunker     *chunker.Chunker
	extractor   Extractor
	matcher     RoleMatcher
	recommender Recommender
	logger      *zap.Logger
	now         func() time.Time
}

// New wires the pipeline stages together.
func New(store *document.Store, ch *chunker.Chunker, ex Extractor, ma RoleMatcher, re Recommender, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:       store,
		chunker:     ch,
		extractor:   ex,
		matcher:     ma,
		recommender: re,
		logger:      logger,
		now:         time.Now,
	}
}

// Upload stores raw text and returns its document id. No chunking happens
// at upload time.
func (p *Pipeline) Upload(rawText, filename string) string {
	id := p.store.Put(rawText, filename)
	p.logger.Info("document uploaded",
		zap.String("document_id", id),
		zap.String("filename", filename),
		zap.Int("chars", len(rawText)),
	)
	return id
}

// Analyze runs the four stages over an uploaded document and assembles the
// result. Every call is a full independent re-run. An unknown id fails
// with document.ErrNotFound before any external call is made.
func (p *Pipeline) Analyze(ctx context.Context, documentID string) (*Result, error) {
	rawText, err := p.store.Text(documentID)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(zap.String("document_id", documentID))

	log.Info("stage 1: chunking")
	chunks := p.chunker.Split(rawText)
	if err := p.store.SetChunks(documentID, chunks); err != nil {
		return nil, err
	}
	log.Debug("chunking complete", zap.Int("chunks", len(chunks)))

	log.Info("stage 2: extracting structured profile")
	extracted, err := p.extractor.Extract(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	log.Info("stage 3: matching against role catalogue")
	query := BuildMatchQuery(extracted)
	matches, err := p.matcher.Match(ctx, query, matchTopK)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	log.Info("stage 4: generating recommendations")
	recs, err := p.recommender.Generate(ctx, extracted, matches)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	result := &Result{
		DocumentID:      documentID,
		CandidateName:   extracted.CandidateName,
		Email:           extracted.Email,
		Summary:         extracted.Summary,
		Skills:          extracted.Skills,
		Experience:      extracted.Experience,
		Education:       extracted.Education,
		Matches:         matches,
		Recommendations: recs,
		QualityScore:    extracted.QualityScore,
		GeneratedAt:     p.now().UTC(),
	}

	log.Info("analysis complete",
		zap.Float64("quality_score", result.QualityScore),
		zap.Int("matches", len(matches)),
		zap.Int("recommendations", len(recs)),
	)
	return result, nil
}

// BuildMatchQuery concatenates the profile summary, the skill list and up
// to the first three experience entries into the matcher query. Empty
// extractions fall back to a generic query.
func BuildMatchQuery(p *profile.Profile) string {
	var parts []string
	if strings.TrimSpace(p.Summary) != "" {
		parts = append(parts, p.Summary)
	}
	if skills := p.SkillNames(); skills != "" {
		parts = append(parts, "Skills: "+skills)
	}
	for i, exp := range p.Experience {
		if i == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s at %s", exp.Title, exp.Organization))
	}

	if len(parts) == 0 {
		return fallbackQuery
	}
	return strings.Join(parts, " | ")
}
