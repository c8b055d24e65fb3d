package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm/gemini"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm/openai"
	"github.com/joseph-ayodele/tradedoc-extract/internal/pipeline"
	"github.com/joseph-ayodele/tradedoc-extract/internal/render"
	"github.com/joseph-ayodele/tradedoc-extract/internal/repository"
)

// app carries process-wide configuration from the root command to its children.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
}

type providerClient interface {
	llm.VisionModel
	llm.ModelLister
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tradedoc",
		Short:         "Extract Bills of Lading and import invoices from PDFs with a vision model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.AddCommand(
		extractCmd(a),
		batchCmd(a),
		modelsCmd(a),
		dbhealthCmd(a),
	)
	return root
}

// init loads .env (if any) and the environment, then installs the logger.
func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv.load_failed", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(c common.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// modelClient builds the client for LLM_PROVIDER. Missing credentials surface
// as common.ErrConfiguration.
func (a *app) modelClient(ctx context.Context) (providerClient, error) {
	switch a.cfg.LLM.Provider {
	case common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:     a.cfg.LLM.GeminiAPIKey,
			Model:      a.cfg.LLM.GeminiModel,
			HTTPClient: &http.Client{Timeout: a.cfg.LLM.Timeout},
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case common.ProviderOpenAI:
		c, err := openai.NewClient(openai.Config{
			APIKey:  a.cfg.LLM.OpenAIAPIKey,
			BaseURL: a.cfg.LLM.OpenAIBaseURL,
			Model:   a.cfg.LLM.OpenAIModel,
			Timeout: a.cfg.LLM.Timeout,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, common.ConfigError("unsupported LLM_PROVIDER " + a.cfg.LLM.Provider)
	}
}

// openJournal returns the no-op journal when JOURNAL_DSN is empty. The
// returned close func is always safe to call.
func (a *app) openJournal(ctx context.Context) (repository.ExtractJobRepository, func(), error) {
	if a.cfg.Journal.DSN == "" {
		return repository.NewNoopExtractJobRepository(), func() {}, nil
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:         a.cfg.Journal.DSN,
		MaxConns:    4,
		DialTimeout: a.cfg.Journal.DialTimeout,
	}, a.logger)
	if err != nil {
		return nil, func() {}, err
	}
	return repository.NewExtractJobRepository(db, a.logger), func() { db.Close(a.logger) }, nil
}

// newProcessor wires rasterizer, model client and journal into a pipeline.
func (a *app) newProcessor(ctx context.Context, modelOverride string) (*pipeline.Processor, func(), error) {
	client, err := a.modelClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	jobs, closeJournal, err := a.openJournal(ctx)
	if err != nil {
		return nil, nil, err
	}
	model := modelOverride
	if model == "" {
		model = a.cfg.ModelName()
	}
	rasterizer := render.New(render.Config{
		Pdftoppm: a.cfg.Render.Pdftoppm,
		Zoom:     a.cfg.Render.Zoom,
	}, a.logger)
	proc := pipeline.NewProcessor(rasterizer, client, pipeline.Options{
		SchemaDir:    a.cfg.Schema.Dir,
		DefaultModel: model,
		Jobs:         jobs,
	}, a.logger)
	return proc, closeJournal, nil
}
