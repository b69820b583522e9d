package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/tallybook/tallybook/internal/billing"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueSweep derives invoice statuses and publishes the overdue gauge.
	TaskOverdueSweep = "invoice:overdue_sweep"
	// TaskReceiptNotify hands a recorded receipt to the notification collaborator.
	TaskReceiptNotify = "receipt:notify"
)

// OverdueSweepPayload configures a sweep run. Trigger records who asked for it.
type OverdueSweepPayload struct {
	Trigger string `json:"trigger"`
}

// NewOverdueSweepTask constructs an overdue sweep task.
func NewOverdueSweepTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(OverdueSweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, data), nil
}

// NewReceiptNotifyTask constructs a receipt notification task.
func NewReceiptNotifyTask(event billing.ReceiptEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptNotify, data), nil
}
