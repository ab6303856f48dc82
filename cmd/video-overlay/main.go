package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	jobhandler "github.com/aliskhannn/video-overlay/internal/api/handlers/job"
	"github.com/aliskhannn/video-overlay/internal/api/router"
	"github.com/aliskhannn/video-overlay/internal/api/server"
	"github.com/aliskhannn/video-overlay/internal/composer"
	"github.com/aliskhannn/video-overlay/internal/config"
	"github.com/aliskhannn/video-overlay/internal/infra/kafka/consumer"
	"github.com/aliskhannn/video-overlay/internal/infra/kafka/producer"
	jobmsg "github.com/aliskhannn/video-overlay/internal/kafka/handlers/job"
	jobsvc "github.com/aliskhannn/video-overlay/internal/service/job"
	"github.com/aliskhannn/video-overlay/internal/storage/object"
	"github.com/aliskhannn/video-overlay/internal/worker"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config")

	// Error reporting is optional: enabled only when a DSN is configured.
	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		})
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to init sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Initialize object storage (MinIO). Clients are constructed once here
	// and injected everywhere they are needed.
	store, err := object.NewStorage(
		ctx,
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.UseSSL,
		cfg.Storage.InputBucket,
		cfg.Storage.OutputBucket,
	)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	// Initialize producer, composer, worker and service layer.
	p := producer.New(&cfg.Kafka, strategy)

	comp := composer.New(composer.Config{
		FFmpegPath:  cfg.Composer.FFmpegPath,
		FFprobePath: cfg.Composer.FFprobePath,
		Preset:      cfg.Composer.Preset,
		Threads:     cfg.Composer.Threads,
	})

	wrk := worker.New(store, comp, cfg.Composer.WorkDir)

	service := jobsvc.NewService(store, p, jobsvc.Config{
		InputBucket:          cfg.Storage.InputBucket,
		OutputBucket:         cfg.Storage.OutputBucket,
		DefaultBackgroundKey: cfg.Storage.DefaultBackgroundKey,
		UploadURLTTL:         cfg.Storage.UploadURLTTL,
		DownloadURLTTL:       cfg.Storage.DownloadURLTTL,
	})

	// Kafka message handler for dispatched jobs.
	dispatchHandler := jobmsg.NewDispatchHandler(wrk)

	// HTTP handler for the pipeline endpoint.
	h := jobhandler.NewHandler(service)

	// Kafka consumer for processing dispatched jobs.
	c := consumer.New(&cfg.Kafka, strategy, dispatchHandler)

	// Start Kafka consumer in a separate goroutine.
	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(h)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for Kafka consumer goroutine to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close Kafka producer and consumer clients.
	if err = p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err = c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}
