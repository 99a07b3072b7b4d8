package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itinerary-service/internal/domain/repository"
	"itinerary-service/internal/infrastructure/config"
	"itinerary-service/internal/infrastructure/oauth"
	"itinerary-service/internal/infrastructure/persistence"
	"itinerary-service/internal/infrastructure/router"
	"itinerary-service/internal/infrastructure/scheduler"
	"itinerary-service/internal/interface/api"
	"itinerary-service/internal/interface/gemini"
	storeRepo "itinerary-service/internal/interface/repository"
	"itinerary-service/internal/usecase"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Itinerary Service", "version", cfg.AppVersion, "store", cfg.StoreBackend, "scheduler", cfg.Scheduler)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("itinerary", prometheus.DefaultRegisterer)

	// Set up the document store and the matching token provider
	store, tokens, closeStore := setupStore(ctx, cfg, log)
	defer closeStore()

	generator, err := gemini.NewTextGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature, cfg.Retry, m, log)
	if err != nil {
		log.Fatal("Failed to create Gemini client", "error", err)
	}

	runner, closeScheduler := setupScheduler(cfg, log)
	defer closeScheduler()

	orchestrator := usecase.NewJobOrchestrator(store, tokens, generator, runner,
		usecase.OrchestratorConfig{
			Collection:        cfg.JobCollection,
			Retry:             cfg.Retry,
			GenerationTimeout: cfg.GenerationTimeout,
			RequeueOnCancel:   runner.Redelivers(),
		},
		m, log)

	if err := runner.Start(ctx, orchestrator.RunGeneration); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}

	// Set up HTTP server
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewJobHandler(orchestrator, cfg.ExposeErrorDetails, log)
	engine := router.NewRouter(handler, router.Options{AllowedOrigins: cfg.CORSAllowedOrigins}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error("Scheduler shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	log.Info("Server stopped")
}

func setupStore(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (repository.DocumentStore, repository.TokenProvider, func()) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		db := persistence.GetDatabase(client, cfg.MongoDB)
		return storeRepo.NewMongoStore(db), oauth.AnonymousTokenProvider{}, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		}

	case config.StorePostgres:
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgresDB(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		store := storeRepo.NewPostgresStore(db)
		if err := store.(*storeRepo.PostgresStore).Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate PostgreSQL", "error", err)
		}
		return store, oauth.AnonymousTokenProvider{}, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

	default:
		credentials, err := cfg.ServiceAccountCredentials()
		if err != nil {
			log.Fatal("Failed to load service account", "error", err)
		}
		tokens, err := oauth.NewServiceAccountTokenProvider(credentials, []string{cfg.TokenScope}, cfg.Retry, log)
		if err != nil {
			log.Fatal("Failed to create token provider", "error", err)
		}
		store := storeRepo.NewFirestoreStore(cfg.FirestoreEndpoint, cfg.FirestoreProjectID, cfg.FirestoreDatabase, log)
		return store, tokens, func() {}
	}
}

func setupScheduler(cfg *config.Config, log *logger.ZapLogger) (scheduler.Runner, func()) {
	if cfg.Scheduler != config.SchedulerNATS {
		return scheduler.NewGoroutineScheduler(log), func() {}
	}

	log.Info("Connecting to NATS", "url", cfg.NATSURL)
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("itinerary-service"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Fatal("Failed to connect to NATS", "error", err)
	}

	js, err := scheduler.NewJetStream(nc, cfg.NATSStream, cfg.NATSSubject)
	if err != nil {
		log.Fatal("Failed to set up JetStream", "error", err)
	}

	ackWait := 15 * time.Minute
	if cfg.GenerationTimeout > 0 {
		ackWait = cfg.GenerationTimeout + time.Minute
	}

	runner := scheduler.NewNATSScheduler(js, scheduler.NATSConfig{
		Stream:  cfg.NATSStream,
		Subject: cfg.NATSSubject,
		Workers: cfg.NATSWorkers,
		AckWait: ackWait,
	}, log)

	return runner, nc.Close
}
