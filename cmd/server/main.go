package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/celledger/internal/adapter/http"
	"github.com/iho/celledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/celledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/celledger/internal/adapter/repository/redis"
	"github.com/iho/celledger/internal/infrastructure/config"
	"github.com/iho/celledger/internal/infrastructure/logger"
	"github.com/iho/celledger/internal/infrastructure/metrics"
	"github.com/iho/celledger/internal/infrastructure/postgres"
	"github.com/iho/celledger/internal/infrastructure/redis"
	"github.com/iho/celledger/internal/notifier"
	"github.com/iho/celledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	appMetrics := metrics.New()

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	templateRepo := postgresRepo.NewTxTemplateRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	eventRepo := postgresRepo.NewEventRepository(pool)
	templateCache := redisRepo.NewTemplateCache(redisClient, cfg.TemplateCacheTTL, appLogger)
	retrier := postgresRepo.NewRetrier(appLogger)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, appMetrics)
	journalUC := usecase.NewJournalUseCase(journalRepo, appMetrics)
	templateUC := usecase.NewTemplateUseCase(templateRepo, templateCache, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(balanceRepo, entryRepo, eventRepo)
	postingUC := usecase.NewPostingUseCase(
		txManager,
		templateRepo,
		templateCache,
		transactionRepo,
		entryRepo,
		balanceRepo,
		eventRepo,
		retrier,
		appMetrics,
	)

	// Start the event notifier tailing the event log. Resuming from the
	// current tail avoids replaying the whole retained log at boot; no
	// subscriber exists yet, so nothing is missed.
	lastEventID, err := eventRepo.MaxID(ctx)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to read event log position")
	}
	source := notifier.NewPGSource(pool, cfg.EventChannel, appLogger, appMetrics)
	eventNotifier := notifier.New(eventRepo, source, notifier.Config{
		AfterID:          lastEventID,
		ScanBatch:        cfg.EventScanBatch,
		SubscriberBuffer: cfg.EventSubscriberBuffer,
	}, appLogger, appMetrics)

	notifierCtx, stopNotifier := context.WithCancel(ctx)
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		if err := eventNotifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event notifier stopped")
		}
	}()

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	journalHandler := handler.NewJournalHandler(journalUC)
	templateHandler := handler.NewTemplateHandler(templateUC)
	transactionHandler := handler.NewTransactionHandler(postingUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	eventHandler := handler.NewEventHandler(ledgerUC, eventNotifier)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		JournalHandler:     journalHandler,
		TemplateHandler:    templateHandler,
		TransactionHandler: transactionHandler,
		LedgerHandler:      ledgerHandler,
		EventHandler:       eventHandler,
		HealthHandler:      healthHandler,
		Logger:             appLogger,
		Metrics:            appMetrics,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Stop the notifier after the server: in-flight streams detach first.
	stopNotifier()
	<-notifierDone

	appLogger.Info().Msg("server stopped")
}
