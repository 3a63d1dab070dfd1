// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"careeragent-workers/internal/common/aws"
	"careeragent-workers/internal/common/camunda"
	"careeragent-workers/internal/common/config"
	"careeragent-workers/internal/common/database"
	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/observability"
	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/notify"
	"careeragent-workers/internal/outbox"
	"careeragent-workers/internal/store"
	"careeragent-workers/pkg/registry"

	cr "careeragent-workers/internal/workers/applicant/create-record"
	eu "careeragent-workers/internal/workers/applicant/email-updates"
	us "careeragent-workers/internal/workers/applicant/update-status"
	si "careeragent-workers/internal/workers/interview/schedule"
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
			delay *= 2 // Exponential backoff
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.MigrateOnBoot {
		if err := store.Migrate(pg.GetDB()); err != nil {
			zapLog.Fatal("database migration failed", zap.Error(err))
		}
		zapLog.Info("Database migrations applied")
	}

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS clients (email + SMS) ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client initialization failed", zap.Error(err))
	}
	snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client initialization failed", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized", zap.String("region", cfg.Notifications.AWS.Region))

	// --- Core services ---
	st := store.New(pg.GetDB())

	mail := mailer.New(sesClient, snsClient, mailer.Config{
		FromEmail:    cfg.Notifications.Email.FromEmail,
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
	}, log)

	notifier := notify.New(st, redis.GetClient(), cfg.Notifications.Realtime.ChannelPrefix, log)

	dispatcher := outbox.New(st, mail, outbox.Config{
		SweepSchedule: cfg.Outbox.SweepSchedule,
		BatchSize:     cfg.Outbox.BatchSize,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	}, log)
	if err := dispatcher.Start(); err != nil {
		zapLog.Fatal("outbox dispatcher failed to start", zap.Error(err))
	}
	zapLog.Info("Outbox dispatcher started", zap.String("schedule", cfg.Outbox.SweepSchedule))

	// --- Cross-check the activity registry ---
	registeredTaskTypes := []string{cr.TaskType, us.TaskType, si.TaskType, eu.TaskType}
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry not loaded", zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else {
		unimplemented, err := reg.Validate(registeredTaskTypes)
		if err != nil {
			zapLog.Fatal("activity registry mismatch", zap.Error(err))
		}
		for _, t := range unimplemented {
			zapLog.Warn("registry declares a task type with no registered worker", zap.String("taskType", t))
		}
	}

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	// Wrap every handler so job throughput and latency land in the otel
	// meter alongside the per-worker prometheus counters.
	instrument := func(h camunda.JobHandler) camunda.JobHandler {
		return func(client worker.JobClient, job entities.Job) {
			start := time.Now()
			h(client, job)
			obs.RecordJobProcessed(context.Background(), job.Type)
			obs.RecordJobDuration(context.Background(), time.Since(start), job.Type)
		}
	}

	if config.IsWorkerEnabled(cfg, cr.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, cr.TaskType)
		handler := cr.NewHandler(
			&cr.Config{Timeout: time.Duration(wcfg.Timeout) * time.Millisecond},
			st, notifier, log,
		)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), cr.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(handler.Handle), zapLog,
		))
	}

	if config.IsWorkerEnabled(cfg, us.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, us.TaskType)
		handler := us.NewHandler(
			&us.Config{Timeout: time.Duration(wcfg.Timeout) * time.Millisecond},
			st, notifier, log,
		)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), us.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(handler.Handle), zapLog,
		))
	}

	if config.IsWorkerEnabled(cfg, si.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, si.TaskType)
		handler := si.NewHandler(
			&si.Config{Timeout: time.Duration(wcfg.Timeout) * time.Millisecond},
			st, notifier, mail, log,
		)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), si.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(handler.Handle), zapLog,
		))
	}

	if config.IsWorkerEnabled(cfg, eu.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, eu.TaskType)
		handler := eu.NewHandler(
			&eu.Config{Timeout: time.Duration(wcfg.Timeout) * time.Millisecond},
			st, dispatcher, log,
		)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), eu.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(handler.Handle), zapLog,
		))
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unready", "reason": "postgres"})
				return
			}
			if err := camundaClient.HealthCheck(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unready", "reason": "camunda"})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		zapLog.Info("Stopping worker", zap.String("taskType", w.TaskType()))
		w.Close()
	}

	dispatcher.Stop()

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
