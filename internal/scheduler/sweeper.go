package scheduler

import (
	"context"
	"time"

	wfservice "leadflow_backend/internal/workflows/service"
	"leadflow_backend/platform/logger"
)

const sweepBatchSize = 50

// DueTaskSweeper executes pending workflow tasks whose schedule has passed.
// It backstops enqueue failures on task creation: a task whose queue insert
// was lost still runs, just later.
type DueTaskSweeper struct {
	workflows *wfservice.Service
	log       *logger.Logger
	interval  time.Duration
}

func NewDueTaskSweeper(workflows *wfservice.Service, log *logger.Logger, interval time.Duration) *DueTaskSweeper {
	return &DueTaskSweeper{
		workflows: workflows,
		log:       log,
		interval:  interval,
	}
}

func (s *DueTaskSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		executed, err := s.workflows.DrainDueTasks(ctx, time.Now().UTC(), sweepBatchSize)
		if err != nil {
			s.log.Warn("due task sweep failed", "error", err)
			continue
		}
		if executed > 0 {
			s.log.Info("due task sweep complete", "executed", executed)
		}
	}
}
