package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight/invoice-pipeline/internal/bootstrap"
	"github.com/finsight/invoice-pipeline/internal/config"
	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/observability/logging"
	"github.com/finsight/invoice-pipeline/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	jobTimeout := time.Duration(cfg.JobTimeoutSeconds) * time.Second

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobQueued(ctx, func(handlerCtx context.Context, jobID string) error {
		if job, err := app.Jobs.GetByID(handlerCtx, jobID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(job.CreatedAt))
		}

		workerMetrics.StartJob()
		start := time.Now()

		runCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()
		runErr := app.ProcessUC.RunJob(runCtx, jobID)

		workerMetrics.FinishJob(serviceName, time.Since(start), runErr)
		if runErr == nil {
			if job, err := app.Jobs.GetByID(handlerCtx, jobID); err == nil && job.Status == domain.JobDone {
				workerMetrics.ObserveRecordsExtracted(serviceName, job.TotalRecords)
			}
		}
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
