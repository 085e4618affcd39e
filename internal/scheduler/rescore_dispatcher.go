package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// RescoreDispatcher periodically enqueues a batch rescore for every tenant
// with leads, so scores decay and recover without manual triggers.
type RescoreDispatcher struct {
	client   *asynq.Client
	queue    string
	repo     *leadsrepo.Repo
	log      *logger.Logger
	interval time.Duration
}

func NewRescoreDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger, interval time.Duration) (*RescoreDispatcher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &RescoreDispatcher{
		client:   asynq.NewClient(opt),
		queue:    queue,
		repo:     leadsrepo.New(pool),
		log:      log,
		interval: interval,
	}, nil
}

func (d *RescoreDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *RescoreDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tenantIDs, err := d.repo.ListTenantIDs(ctx)
		if err != nil {
			d.log.Warn("rescore dispatch: tenant listing failed", "error", err)
			continue
		}

		for _, tenantID := range tenantIDs {
			task, err := NewBatchScoreTask(BatchScorePayload{TenantID: tenantID.String()})
			if err != nil {
				d.log.Warn("rescore dispatch: task build failed", "tenant_id", tenantID, "error", err)
				continue
			}
			if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue)); err != nil {
				d.log.Warn("rescore dispatch: enqueue failed", "tenant_id", tenantID, "error", err)
			}
		}
		d.log.Info("batch rescore dispatched", "tenants", len(tenantIDs))
	}
}
