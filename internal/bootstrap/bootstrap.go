package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finsight/invoice-pipeline/internal/config"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
	"github.com/finsight/invoice-pipeline/internal/core/usecase"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/export"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/extractor/pdftext"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/llm/openai"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/queue/nats"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/repository/postgres"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/resilience"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/storage/localfs"
)

// App wires the shared dependency graph for both binaries. The api uses
// the inbound ports plus the synonym and export services; the worker uses
// the queue and the job processor.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Jobs  ports.JobRepository

	CreateUC  ports.JobCreator
	ProcessUC ports.JobProcessor
	ChatUC    ports.ResultAnswerer
	JobReader ports.JobReader
	Results   ports.ResultReader
	Synonyms  *usecase.SynonymService
	Exporter  *export.Service

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	jobs := postgres.NewJobRepository(db)
	docs := postgres.NewDocumentRepository(db)
	results := postgres.NewResultRepository(db)
	synonymRepo := postgres.NewSynonymRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	completion := openai.New(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.OpenAITextModel,
		cfg.OpenAIVisionModel,
		openai.Options{
			Timeout:            time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
			ResilienceExecutor: executor,
		},
	)

	extractor := usecase.NewExtractorAdapter(storage, pdftext.New(), completion)
	batch := usecase.NewBatchRunner(extractor, logger)

	createUC := usecase.NewCreateJobUseCase(jobs, docs, storage, queue, logger)
	processUC := usecase.NewProcessJobUseCase(jobs, docs, results, synonymRepo, batch, logger)
	chatUC := usecase.NewChatUseCase(jobs, results, completion)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Jobs:  jobs,

		CreateUC:  createUC,
		ProcessUC: processUC,
		ChatUC:    chatUC,
		JobReader: jobs,
		Results:   results,
		Synonyms:  usecase.NewSynonymService(synonymRepo),
		Exporter:  export.NewService(jobs, results, logger),

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
