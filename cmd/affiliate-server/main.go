// cmd/affiliate-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"affiliate-registration/internal/api"
	commonaws "affiliate-registration/internal/common/aws"
	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/common/database"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/observability"
	"affiliate-registration/internal/pipeline"

	car "affiliate-registration/internal/workers/registration/create-affiliate-record"
	ia "affiliate-registration/internal/workers/registration/index-affiliate"
	rs "affiliate-registration/internal/workers/registration/relay-sheet"
	sn "affiliate-registration/internal/workers/registration/send-notification"
	va "affiliate-registration/internal/workers/registration/validate-affiliate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting affiliate registration server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability degraded", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Storage ---
	var store car.Store
	var pg *database.PostgresClient
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		pgStore := car.NewPostgresStore(pg.DB, cfg.Storage.AuditLog, log)
		if cfg.Storage.AutoMigrate {
			if err := pgStore.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("schema migration failed", zap.Error(err))
			}
		}
		store = pgStore
	default:
		store = car.NewMemoryStore()
		zapLog.Warn("using in-memory storage; registrations are lost on restart")
	}

	// --- Redis (delivery queue) ---
	var redis *database.RedisClient
	if cfg.Pipeline.Mode == config.ModeAsync && cfg.Pipeline.Queue == config.QueueRedis {
		err = retryWithBackoff(func() error {
			redis = database.NewRedis(cfg.Database.Redis)
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch (optional archive) ---
	var indexer pipeline.Indexer
	if cfg.Archive.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Error("elasticsearch unavailable, archive disabled", zap.Error(err))
		} else {
			indexer = ia.NewHandler(&ia.Config{
				Index:   cfg.Archive.Index,
				Timeout: config.GetDuration(cfg.Archive.Timeout),
			}, esClient.Client, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Notification transports ---
	transport, err := sn.NewTransport(ctx, cfg)
	if err != nil {
		zapLog.Fatal("email transport init failed", zap.Error(err))
	}
	if !cfg.EmailConfigured() {
		zapLog.Warn("email transport not configured; notifications will be skipped")
	}

	var alerter sn.Alerter
	if cfg.AWS.AlertTopicARN != "" {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Error("aws config load failed, operator alerts disabled", zap.Error(err))
		} else {
			alerter = sn.NewSNSAlerter(commonaws.NewSNSClient(awsCfg), cfg.AWS.AlertTopicARN)
		}
	}

	// --- Pipeline stages ---
	validator := va.NewHandler(va.LoadConfig(), log)

	recorderCfg := car.LoadConfig()
	recorderCfg.Timeout = config.GetDuration(cfg.Storage.Timeout)
	recorderCfg.AuditLog = cfg.Storage.AuditLog
	recorder := car.NewHandler(recorderCfg, store, log)

	relay := rs.NewHandler(&rs.Config{
		WebhookURL: cfg.Sheets.WebhookURL,
		Timeout:    config.GetDuration(cfg.Sheets.Timeout),
		UserAgent:  cfg.Sheets.UserAgent,
	}, log)
	if !relay.Configured() {
		zapLog.Warn("Google Sheets webhook not configured; every registration will be backed up by email")
	}

	notifierCfg := sn.LoadConfig()
	notifierCfg.FromEmail = cfg.Email.FromEmail
	notifierCfg.FromName = cfg.Email.FromName
	notifierCfg.BackupFromName = cfg.Email.BackupFromName
	notifierCfg.OperatorEmail = cfg.Email.OperatorEmail
	notifierCfg.AlertTopicARN = cfg.AWS.AlertTopicARN
	notifierCfg.Timeout = config.GetDuration(cfg.Email.Timeout)
	notifier := sn.NewHandler(notifierCfg, transport, alerter, log)

	// --- Delivery dispatcher ---
	var dispatcher pipeline.Dispatcher
	if cfg.Pipeline.Mode == config.ModeAsync {
		if redis != nil {
			dispatcher = pipeline.NewRedisDispatcher(redis.Client, cfg.Pipeline.RedisQueueKey,
				cfg.Pipeline.Workers, config.GetDuration(cfg.Pipeline.PollInterval), log)
		} else {
			dispatcher = pipeline.NewLocalDispatcher(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, log)
		}
	}

	service := pipeline.NewService(pipeline.Config{
		Mode:            cfg.Pipeline.Mode,
		DeliveryTimeout: config.GetDuration(cfg.Pipeline.DeliveryTimeout),
	}, pipeline.Dependencies{
		Validator:     validator,
		Recorder:      recorder,
		Relayer:       relay,
		Notifier:      notifier,
		Indexer:       indexer,
		Dispatcher:    dispatcher,
		Observability: obs,
	}, log)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if dispatcher != nil {
		dispatcher.Start(workerCtx, service.RunJob)
		zapLog.Info("delivery workers started",
			zap.String("queue", dispatcher.Name()),
			zap.Int("workers", cfg.Pipeline.Workers),
		)
	}

	// --- HTTP ---
	handlers := api.NewHandlers(service, relay, api.Info{
		Service:          cfg.App.Name,
		Version:          cfg.App.Version,
		Environment:      cfg.App.Environment,
		Storage:          cfg.Storage.Driver,
		SheetsConfigured: cfg.SheetsConfigured(),
		EmailConfigured:  cfg.EmailConfigured(),
	}, cfg.HTTP.MaxBodyBytes, log)

	router := api.NewRouter(api.RouterConfig{
		CORSAllowOrigin:    cfg.HTTP.CORSAllowOrigin,
		DiagnosticsEnabled: cfg.Sheets.DiagnosticsEnabled,
		MetricsEnabled:     true,
	}, handlers, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
		IdleTimeout:  config.GetDuration(cfg.HTTP.IdleTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if dispatcher != nil {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			zapLog.Error("Error stopping delivery workers", zap.Error(err))
		}
	}

	zapLog.Info("Affiliate registration server stopped gracefully")
}
