// cmd/wizard-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pool-wizard/internal/backend"
	awsclients "pool-wizard/internal/common/aws"
	"pool-wizard/internal/common/camunda"
	"pool-wizard/internal/common/config"
	"pool-wizard/internal/common/database"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/common/observability"
	"pool-wizard/internal/ledger"
	"pool-wizard/internal/notify"
	"pool-wizard/internal/server"
	"pool-wizard/internal/services/poolwizard"
	"pool-wizard/internal/session"

	vps "pool-wizard/internal/workers/pool/validate-pool-submission"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if attempt < maxRetries {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Int("attempt", attempt),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
				zap.Error(err),
			)
			time.Sleep(delay)
			delay *= 2
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pool wizard server...", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	spanExporter, err := observability.NewSpanExporter(ctx, cfg.Tracing)
	if err != nil {
		zapLog.Fatal("trace exporter failed", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, observability.WithSpanExporter(spanExporter))
	defer obs.Shutdown()

	// --- Redis (session store) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	readiness := []server.ReadinessCheck{{Name: "redis", Check: redis.Ping}}

	deps := poolwizard.Dependencies{
		Config: poolwizard.Config{
			DefaultState:          cfg.Wizard.DefaultState,
			UnderwritingProcessID: cfg.Camunda.UnderwritingProcessID,
		},
		Backend:       backend.NewClient(cfg.Backend.BaseURL, config.GetDuration(cfg.Backend.Timeout), obs.Tracer(), log),
		Sessions:      session.NewStore(redis.GetClient(), config.GetDuration(cfg.Session.TTL), cfg.Session.KeyPrefix, log),
		Observability: obs,
		Logger:        log,
	}

	// --- PostgreSQL (submission ledger, optional) ---
	if cfg.Database.Postgres.Enabled() {
		var pg *database.PostgresClient
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

		l := ledger.New(pg.GetDB(), log)
		if err := l.RunMigrations(ctx); err != nil {
			zapLog.Fatal("ledger migrations failed", zap.Error(err))
		}
		deps.Ledger = l
		readiness = append(readiness, server.ReadinessCheck{Name: "postgres", Check: pg.Ping})
		zapLog.Info("PostgreSQL connected successfully")
	} else {
		zapLog.Info("ledger disabled: no postgres host configured")
	}

	// --- SES / SNS (confirmation notifier, optional) ---
	notifCfg := cfg.Notifications
	if notifCfg.Email.Enabled || notifCfg.SMS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, notifCfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		deps.Notifier = notify.New(notify.Config{
			EmailEnabled: notifCfg.Email.Enabled,
			SMSEnabled:   notifCfg.SMS.Enabled,
			FromEmail:    notifCfg.Email.FromEmail,
			SMSSenderID:  notifCfg.SMS.SenderID,
		}, awsclients.NewSESClient(awsCfg), awsclients.NewSNSClient(awsCfg), log)
		zapLog.Info("Notifier initialized",
			zap.Bool("email", notifCfg.Email.Enabled),
			zap.Bool("sms", notifCfg.SMS.Enabled),
		)
	}

	// --- Zeebe (underwriting hand-off and job worker, optional) ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		deps.Processes = zeebe
		readiness = append(readiness, server.ReadinessCheck{Name: "zeebe", Check: zeebe.HealthCheck})
		zapLog.Info("Zeebe client connected successfully")

		if config.IsWorkerEnabled(cfg, vps.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, vps.TaskType)
			workerCfg := vps.LoadConfig()
			workerCfg.Timeout = config.GetDuration(wcfg.Timeout)
			w := camunda.NewWorker(zeebe.GetClient(), vps.TaskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout),
				vps.NewHandler(workerCfg, log), log)
			w.Start()
			workers = append(workers, w)
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", vps.TaskType))
		}
	}

	svc := poolwizard.NewService(deps)
	router := server.NewRouter(server.NewHandler(svc, log, readiness...))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Pool wizard server stopped gracefully")
}
