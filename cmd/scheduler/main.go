package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leadflow_backend/internal/channels/email"
	"leadflow_backend/internal/channels/sms"
	"leadflow_backend/internal/channels/voice"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads"
	"leadflow_backend/internal/research"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/internal/workflows"
	"leadflow_backend/internal/workflows/executor"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Rescoring inside the worker re-enqueues follow-up outreach, so the
	// worker carries its own queue client.
	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = schedClient.Close() }()

	opts := executor.Options{AppBaseURL: cfg.GetAppBaseURL()}
	if voiceClient := voice.NewClient(cfg, log); voiceClient != nil {
		opts.Voice = voiceClient
	}
	if smsClient := sms.NewClient(cfg, log); smsClient != nil {
		opts.SMS = smsClient
	}
	if emailSender := email.NewSender(cfg); emailSender != nil {
		opts.Email = emailSender
	}
	if researchClient := research.NewClient(cfg, log); researchClient != nil {
		opts.Researcher = researchClient
	}
	if cfg.IsMinIOEnabled() {
		archive, err := research.NewArchive(cfg)
		if err != nil {
			log.Error("failed to initialize research archive", "error", err)
			panic("failed to initialize research archive: " + err.Error())
		}
		opts.Archive = archive
	}

	leadsModule := leads.NewModule(pool, schedClient, eventBus, log)
	workflowsModule := workflows.NewModule(pool, eventBus, schedClient, log, opts)

	rescoreInterval := getDurationEnv("RESCORE_DISPATCH_INTERVAL", 24*time.Hour)
	rescoreDispatcher, err := scheduler.NewRescoreDispatcher(cfg, pool, log, rescoreInterval)
	if err != nil {
		log.Error("failed to initialize rescore dispatcher", "error", err)
		panic("failed to initialize rescore dispatcher: " + err.Error())
	}
	defer func() { _ = rescoreDispatcher.Close() }()
	go rescoreDispatcher.Run(ctx)

	sweepInterval := getDurationEnv("DUE_TASK_SWEEP_INTERVAL", time.Minute)
	sweeper := scheduler.NewDueTaskSweeper(workflowsModule.Service(), log, sweepInterval)
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), workflowsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
