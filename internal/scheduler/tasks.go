package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOverdueScan = "leads.overdue.scan"

// OverdueScanPayload identifies the organization whose leads get scanned.
type OverdueScanPayload struct {
	OrganizationID string `json:"organizationId"`
}

func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}

func ParseOverdueScanPayload(task *asynq.Task) (OverdueScanPayload, error) {
	var payload OverdueScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OverdueScanPayload{}, err
	}
	return payload, nil
}
