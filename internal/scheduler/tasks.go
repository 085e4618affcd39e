// Package scheduler provides the asynq-backed background task queue:
// scheduled outreach delivery, workflow task execution, and batch rescoring.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutreachDue = "leads.outreach_due"

const TaskExecuteWorkflowTask = "workflows.execute_task"

const TaskBatchScore = "leads.batch_score"

type OutreachDuePayload struct {
	LeadID   string `json:"leadId"`
	TenantID string `json:"tenantId"`
	Action   string `json:"action"`
}

type ExecuteWorkflowTaskPayload struct {
	TaskID   string `json:"taskId"`
	TenantID string `json:"tenantId"`
}

type BatchScorePayload struct {
	TenantID string `json:"tenantId"`
}

func NewOutreachDueTask(payload OutreachDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutreachDue, data), nil
}

func ParseOutreachDuePayload(task *asynq.Task) (OutreachDuePayload, error) {
	var payload OutreachDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutreachDuePayload{}, err
	}
	return payload, nil
}

func NewExecuteWorkflowTaskTask(payload ExecuteWorkflowTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExecuteWorkflowTask, data), nil
}

func ParseExecuteWorkflowTaskPayload(task *asynq.Task) (ExecuteWorkflowTaskPayload, error) {
	var payload ExecuteWorkflowTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ExecuteWorkflowTaskPayload{}, err
	}
	return payload, nil
}

func NewBatchScoreTask(payload BatchScorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchScore, data), nil
}

func ParseBatchScorePayload(task *asynq.Task) (BatchScorePayload, error) {
	var payload BatchScorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BatchScorePayload{}, err
	}
	return payload, nil
}
