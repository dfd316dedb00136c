package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/cvinsight/cv-insight/internal/agent"
	"github.com/cvinsight/cv-insight/internal/ai/gemini"
	"github.com/cvinsight/cv-insight/internal/chunker"
	"github.com/cvinsight/cv-insight/internal/document"
	"github.com/cvinsight/cv-insight/internal/extract"
	"github.com/cvinsight/cv-insight/internal/logger"
	"github.com/cvinsight/cv-insight/internal/match"
	"github.com/cvinsight/cv-insight/internal/pipeline"
	"github.com/cvinsight/cv-insight/internal/recommend"
	"github.com/cvinsight/cv-insight/internal/secrets"

	"go.uber.org/zap"
)

// application bundles the wired components shared by the serve, analyze
// and ask commands.
type application struct {
	store    *document.Store
	loader   *document.Loader
	pipeline *pipeline.Pipeline
	agent    *agent.Agent
}

// newApplication builds the whole component graph from the config.
func newApplication(ctx context.Context, config *Config, log *zap.Logger) (*application, error) {
	aiCfg := config.AI
	if aiCfg == nil {
		aiCfg = &AIConfig{}
	}
	if aiCfg.Provider != "" && aiCfg.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	geminiCfg := aiCfg.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: geminiCfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	client, err := gemini.NewClient(ctx, apiKey, geminiCfg.Model,
		gemini.WithEmbeddingModel(geminiCfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("building gemini client: %w", err)
	}

	aiLogger := logger.WithCommonFields(log, "gemini", client.Model())

	var extractOpts []extract.Option
	if geminiCfg.MaxRetries > 0 {
		extractOpts = append(extractOpts, extract.WithRetries(geminiCfg.MaxRetries, 2*time.Second))
	}
	if geminiCfg.MaxLogLength > 0 {
		extractOpts = append(extractOpts, extract.WithMaxLogLength(geminiCfg.MaxLogLength))
	}
	extractor := extract.New(client, aiLogger, extractOpts...)

	catalogue, err := resolveCatalogue(config)
	if err != nil {
		return nil, fmt.Errorf("resolving role catalogue: %w", err)
	}

	matcher := match.New(client, catalogue, aiLogger)
	recommender := recommend.New(client, aiLogger)

	pipelineCfg := config.Pipeline
	if pipelineCfg == nil {
		pipelineCfg = &PipelineConfig{}
	}

	size := pipelineCfg.ChunkSize
	if size <= 0 {
		size = chunker.DefaultSize
	}
	overlap := pipelineCfg.ChunkOverlap
	if overlap <= 0 {
		overlap = chunker.DefaultOverlap
	}

	store := document.NewStore()

	var loaderOpts []document.LoaderOption
	if pipelineCfg.PDFCommand != "" {
		loaderOpts = append(loaderOpts, document.WithPDFCommand(pipelineCfg.PDFCommand))
	}
	loader := document.NewLoader(loaderOpts...)

	pipe := pipeline.New(store, chunker.New(size, overlap), extractor, matcher, recommender, log)

	var agentOpts []agent.Option
	if config.Agent != nil && config.Agent.MaxIterations > 0 {
		agentOpts = append(agentOpts, agent.WithMaxIterations(config.Agent.MaxIterations))
	}
	asker := agent.New(client, store, aiLogger, agentOpts...)

	return &application{
		store:    store,
		loader:   loader,
		pipeline: pipe,
		agent:    asker,
	}, nil
}

// resolveCatalogue decodes the configured role catalogue, falling back to
// the built-in one when the config does not provide any.
func resolveCatalogue(config *Config) ([]match.CatalogueEntry, error) {
	if len(config.Catalogue) == 0 {
		return match.DefaultCatalogue(), nil
	}
	return match.DecodeCatalogue(config.Catalogue)
}
