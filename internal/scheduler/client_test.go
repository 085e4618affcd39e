package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "outreach" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 2 }

func TestClient_ScheduleOutreach(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	leadID := uuid.New()
	tenantID := uuid.New()
	runAt := time.Now().Add(4 * time.Hour)

	if err := client.ScheduleOutreach(context.Background(), leadID, tenantID, "email_sms", runAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("outreach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(scheduled))
	}
	if scheduled[0].Type != TaskOutreachDue {
		t.Fatalf("expected task type %s, got %s", TaskOutreachDue, scheduled[0].Type)
	}

	payload, err := ParseOutreachDuePayload(asynq.NewTask(scheduled[0].Type, scheduled[0].Payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LeadID != leadID.String() || payload.Action != "email_sms" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestClient_ScheduleTaskExecution(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	taskID := uuid.New()
	if err := client.ScheduleTaskExecution(context.Background(), taskID, uuid.New(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("outreach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scheduled) != 1 || scheduled[0].Type != TaskExecuteWorkflowTask {
		t.Fatalf("expected one workflow execution task, got %+v", scheduled)
	}
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{redisURL: ""}); err == nil {
		t.Fatal("expected error when redis url is missing")
	}
}

func TestNilClient_IsNoOp(t *testing.T) {
	var client *Client
	if err := client.ScheduleOutreach(context.Background(), uuid.New(), uuid.New(), "email_sms", time.Now()); err != nil {
		t.Fatalf("expected nil client to no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil client close to no-op, got %v", err)
	}
}
