package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/complyon/kyc-pipeline/internal/config"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
	"github.com/complyon/kyc-pipeline/internal/core/usecase"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/extractor/content"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/llm/openai"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/queue/nats"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/repository/postgres"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/storage/localfs"
	"github.com/complyon/kyc-pipeline/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Policy config.Policy

	Queue   ports.BatchQueue
	Repo    ports.BatchRepository
	Metrics *metrics.PipelineMetrics

	SubmitUC  ports.BatchSubmitter
	ProcessUC ports.BatchProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBatchRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	fieldClient := openai.New(openai.Config{
		BaseURL:        cfg.FieldServiceURL,
		APIKey:         cfg.FieldServiceAPIKey,
		Model:          cfg.FieldServiceModel,
		CallTimeout:    time.Duration(cfg.FieldTimeoutSeconds) * time.Second,
		MaxRetries:     cfg.FieldMaxRetries,
		CallsPerSecond: cfg.FieldCallsPerSecond,
	})

	extractor := content.NewExtractor(storage, cfg.SnippetMaxChars, logger)
	pipelineMetrics := metrics.NewPipelineMetrics("kyc_pipeline")

	pipeline := usecase.NewDocumentPipeline(
		extractor,
		fieldClient,
		usecase.NewValidator(policy.Quality),
		usecase.NewScorer(policy.Risk),
		usecase.NewRouter(policy.Quality),
		logger,
	)

	submitUC := usecase.NewSubmitBatchUseCase(repo, storage, queue)
	processUC := usecase.NewBatchUseCase(
		repo,
		storage,
		pipeline,
		pipelineMetrics,
		logger,
		cfg.WorkerCount,
		time.Duration(cfg.BatchTimeoutSeconds)*time.Second,
	)

	return &App{
		Config: cfg,
		Policy: policy,

		Queue:   queue,
		Repo:    repo,
		Metrics: pipelineMetrics,

		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
