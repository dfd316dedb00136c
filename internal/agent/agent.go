// Package agent answers free-form questions about an uploaded CV through
// a bounded tool-calling reasoning loop.
//
// The loop is an explicit state machine: the model reasons, optionally
// selects read-only tools, observes their output, and reasons again until
// it answers or the iteration ceiling is reached.
package agent

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/document"
	"github.com/cvinsight/cv-insight/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

// DefaultMaxIterations bounds the reasoning loop when no ceiling is
// configured.
const DefaultMaxIterations = 8

// sourceExcerptLength caps the provenance excerpt kept per observation.
const sourceExcerptLength = 100

const limitExceededAnswer = "I could not produce a complete answer within the reasoning limit. " +
	"Try a narrower question about the CV."

// Reply is the outcome of one question-answering session.
type Reply struct {
	Answer    string   `json:"answer"`
	ToolsUsed []string `json:"tools_used"`
	Sources   []string `json:"sources"`
}

// Agent runs bounded reasoning sessions against the shared document store.
type Agent struct {
	reasoner      ai.Reasoner
	store         *document.Store
	logger        *zap.Logger
	maxIterations int
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations sets the reasoning loop ceiling.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// New creates an agent over the given reasoner and document store.
func New(reasoner ai.Reasoner, store *document.Store, logger *zap.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		reasoner:      reasoner,
		store:         store,
		logger:        logger,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers a free-form question about the document. The loop always
// terminates: either the model answers, or the iteration ceiling produces
// a degraded reply. Context cancellation is honored at every model step.
func (a *Agent) Ask(ctx context.Context, documentID, question string) (*Reply, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	log := a.logger.With(zap.String("document_id", documentID))
	log.Info("agent session started", zap.String("question", utils.TruncateForLog(question, 120)))

	tools := newToolbox(a.store, documentID)
	messages := []ai.Message{{
		Role: ai.RoleUser,
		Text: fmt.Sprintf("The CV document id is %q. User question: %s", documentID, question),
	}}

	var toolsUsed []string
	var sources []string
	seen := make(map[string]bool)
	lastText := ""

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		step, err := a.reasoner.Step(ctx, &ai.ReasoningRequest{
			System:   systemPrompt,
			Messages: messages,
			Tools:    tools.specs(),
		})
		if err != nil {
			return nil, fmt.Errorf("reasoning step %d: %w", iteration+1, err)
		}

		if step.Text != "" {
			lastText = step.Text
		}

		if len(step.Calls) == 0 {
			log.Info("agent session answered",
				zap.Int("iterations", iteration+1),
				zap.Strings("tools_used", toolsUsed),
			)
			return &Reply{
				Answer:    step.Text,
				ToolsUsed: toolsUsed,
				Sources:   sources,
			}, nil
		}

		messages = append(messages, ai.Message{
			Role:  ai.RoleModel,
			Text:  step.Text,
			Calls: step.Calls,
		})

		results := make([]ai.ToolResult, 0, len(step.Calls))
		for _, call := range step.Calls {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			observation := tools.run(call)
			results = append(results, ai.ToolResult{Name: call.Name, Content: observation})

			if !seen[call.Name] {
				seen[call.Name] = true
				toolsUsed = append(toolsUsed, call.Name)
			}
			sources = append(sources, fmt.Sprintf("%s: %s", call.Name, utils.TruncateForLog(observation, sourceExcerptLength)))

			log.Debug("tool executed",
				zap.String("tool", call.Name),
				zap.String("observation_preview", utils.TruncateForLog(observation, sourceExcerptLength)),
			)
		}
		messages = append(messages, ai.Message{Role: ai.RoleTool, Results: results})
	}

	log.Warn("agent session hit the reasoning limit",
		zap.Int("max_iterations", a.maxIterations),
		zap.Strings("tools_used", toolsUsed),
	)

	answer := lastText
	if strings.TrimSpace(answer) == "" {
		answer = limitExceededAnswer
	}
	return &Reply{
		Answer:    answer,
		ToolsUsed: toolsUsed,
		Sources:   sources,
	}, nil
}
