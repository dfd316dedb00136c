// Package extract turns raw CV text into a validated structured profile
// through a schema-constrained generation call.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/profile"
	"github.com/cvinsight/cv-insight/internal/utils"
)

// ErrSchemaViolation is returned when the model output cannot be coerced
// to the profile schema. It terminates the analysis run.
var ErrSchemaViolation = errors.New("extraction schema violation")

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxRetries   = 2
	defaultRetryBackoff = 2 * time.Second
	defaultMaxLogLength = 200
)

// Extractor drives the structured extraction stage.
type Extractor struct {
	gen          ai.StructuredGenerator
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
	maxLogLen    int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetries sets the retry budget for transient generation failures.
func WithRetries(n int, backoff time.Duration) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.maxRetries = n
		}
		if backoff > 0 {
			e.retryBackoff = backoff
		}
	}
}

// WithMaxLogLength caps prompt/response previews in debug logs.
func WithMaxLogLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLogLen = n
		}
	}
}

// New creates an extractor backed by the given structured generator.
func New(gen ai.StructuredGenerator, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		gen:          gen,
		logger:       logger,
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
		maxLogLen:    defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces a validated profile from raw CV text. Transient
// generation failures are retried with backoff; output that cannot be
// coerced to the schema fails with ErrSchemaViolation, without
// substituting defaults for required fields.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*profile.Profile, error) {
	prompt := strings.ReplaceAll(promptTemplate, "{{CV_TEXT}}", rawText)

	e.logger.Debug("extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	var raw string
	var err error
	for attempt := 0; ; attempt++ {
		raw, err = e.gen.GenerateStructured(ctx, prompt, Schema())
		if err == nil {
			break
		}
		if attempt >= e.maxRetries || ctx.Err() != nil {
			return nil, fmt.Errorf("structured generation: %w", err)
		}
		e.logger.Warn("extraction attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if waitErr := utils.WaitFor(ctx, e.retryBackoff); waitErr != nil {
			return nil, waitErr
		}
	}

	e.logger.Debug("extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseProfile(raw)
}

func parseProfile(raw string) (*profile.Profile, error) {
	// The score is decoded through a pointer so an absent field is
	// distinguishable from a literal zero.
	var payload struct {
		profile.Profile
		QualityScore *float64 `json:"quality_score"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if payload.QualityScore == nil {
		return nil, fmt.Errorf("%w: quality_score is required", ErrSchemaViolation)
	}

	p := payload.Profile
	p.QualityScore = *payload.QualityScore
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return &p, nil
}

// Schema describes the profile shape the generator must emit.
func Schema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			"candidate_name": {Type: ai.TypeString, Description: "Full name of the candidate"},
			"email":          {Type: ai.TypeString, Description: "Email address if found"},
			"summary":        {Type: ai.TypeString, Description: "Concise 2-3 sentence professional summary"},
			"skills": {
				Type: ai.TypeArray,
				Items: &ai.Schema{
					Type: ai.TypeObject,
					Properties: map[string]*ai.Schema{
						"name": {Type: ai.TypeString},
						"level": {
							Type: ai.TypeString,
							Enum: []string{
								profile.LevelBeginner,
								profile.LevelIntermediate,
								profile.LevelAdvanced,
								profile.LevelExpert,
							},
						},
						"years": {Type: ai.TypeNumber},
					},
					Required: []string{"name", "level"},
				},
			},
			"experience": {
				Type: ai.TypeArray,
				Items: &ai.Schema{
					Type: ai.TypeObject,
					Properties: map[string]*ai.Schema{
						"title":        {Type: ai.TypeString},
						"organization": {Type: ai.TypeString},
						"duration":     {Type: ai.TypeString},
						"domain":       {Type: ai.TypeString},
						"highlights":   {Type: ai.TypeArray, Items: &ai.Schema{Type: ai.TypeString}},
					},
					Required: []string{"title"},
				},
			},
			"education": {
				Type: ai.TypeArray,
				Items: &ai.Schema{
					Type: ai.TypeObject,
					Properties: map[string]*ai.Schema{
						"degree":      {Type: ai.TypeString},
						"institution": {Type: ai.TypeString},
						"year":        {Type: ai.TypeString},
					},
					Required: []string{"degree"},
				},
			},
			"quality_score": {Type: ai.TypeNumber, Description: "Overall CV quality score from 0 to 100"},
		},
		Required: []string{"candidate_name", "summary", "quality_score"},
	}
}
