package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/slasentry/prediction-service/internal/application/dispatch"
	"github.com/slasentry/prediction-service/internal/application/usecase"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/domain/service"
	"github.com/slasentry/prediction-service/internal/infrastructure/artifact"
	"github.com/slasentry/prediction-service/internal/infrastructure/config"
	"github.com/slasentry/prediction-service/internal/infrastructure/messaging"
	"github.com/slasentry/prediction-service/internal/infrastructure/postgres"
	"github.com/slasentry/prediction-service/internal/ml"
	"github.com/slasentry/prediction-service/internal/observability"
	"github.com/slasentry/prediction-service/internal/presentation/rest"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting sla-prediction-service",
		slog.String("environment", cfg.Environment),
	)

	if cfg.MigrationsDir != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.String("dir", cfg.MigrationsDir))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Infrastructure adapters.
	trainingProvider := postgres.NewTrainingDataProvider(pool, logger)
	requestRepo := postgres.NewRequestRepository(pool)
	artifacts := artifact.NewFileStore()

	var publisher port.EventPublisher
	if cfg.KafkaEnabled {
		kafkaPublisher := messaging.NewKafkaPublisher([]string{cfg.KafkaBroker}, "sla.events", logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	// Model lifecycle and scoring.
	clock := port.SystemClock()
	store := ml.NewModelStore(
		ml.NewTrainer(logger),
		trainingProvider,
		artifacts,
		clock,
		ml.StoreConfig{
			Path:               cfg.ModelPath,
			ReloadInterval:     cfg.ModelReloadInterval,
			MaxTrainingSamples: cfg.MaxTrainingSamples,
		},
		logger,
	)
	predictor := ml.NewPredictor()
	explainer := service.NewFactorExplainer()
	dispatcher := dispatch.New(cfg.WorkerPoolSize)

	// Use cases.
	batch := usecase.NewPredictBatch(store, predictor, explainer, clock)
	usecases := rest.Usecases{
		PredictBreach:   usecase.NewPredictBreach(store, predictor, explainer, publisher, clock, logger),
		ListCritical:    usecase.NewListCritical(requestRepo, batch),
		ListPredictions: usecase.NewListPredictions(requestRepo, batch),
		SummarizeRisk:   usecase.NewSummarizeRisk(requestRepo, batch),
		GetTrends:       usecase.NewGetTrends(requestRepo),
		GetRoleStats:    usecase.NewGetRoleStats(requestRepo),
		GetPolicyStats:  usecase.NewGetPolicyStats(requestRepo),
		GetFilters:      usecase.NewGetFilters(requestRepo),
		RetrainModel:    usecase.NewRetrainModel(store, publisher, logger),
		GetModelInfo:    usecase.NewGetModelInfo(store),
	}

	// HTTP server.
	mux := http.NewServeMux()
	rest.NewPredictionHandler(usecases, dispatcher, logger).RegisterRoutes(mux)
	rest.NewHealthHandler(store, requestRepo, logger).RegisterRoutes(mux)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", observability.MetricsHandler())
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.LoggingMiddleware(logger)(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Warm the model up front so the first prediction doesn't pay for
	// training. Failure is logged, not fatal: the first request retries.
	go func() {
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer warmCancel()
		err := dispatcher.Do(warmCtx, func() error {
			_, err := store.Current(warmCtx)
			return err
		})
		if err != nil {
			logger.Warn("model warm-up failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("model warmed up")
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", slog.String("address", cfg.HTTPAddress()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
	}

	logger.Info("shutting down sla-prediction-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("sla-prediction-service stopped")
}
