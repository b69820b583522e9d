package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tallybook/tallybook/internal/billing"
	jobmetrics "github.com/tallybook/tallybook/internal/jobs"
)

// Deliverer sends a receipt notification to the customer. Delivery itself
// lives outside this service.
type Deliverer interface {
	Deliver(ctx context.Context, event billing.ReceiptEvent) error
}

// LogDeliverer only logs the notification.
type LogDeliverer struct {
	Logger *slog.Logger
}

// Deliver implements Deliverer.
func (d LogDeliverer) Deliver(ctx context.Context, event billing.ReceiptEvent) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "receipt notification",
		slog.String("invoice", event.InvoiceNumber),
		slog.String("contact_id", event.ContactID),
		slog.String("kind", string(event.Kind)),
		slog.String("amount", event.AmountInclGST.StringFixed(2)),
		slog.String("status", string(event.Status)),
	)
	return nil
}

// ReceiptNotifyJob processes TaskReceiptNotify tasks.
type ReceiptNotifyJob struct {
	Deliverer Deliverer
	Metrics   *jobmetrics.Metrics
}

// Handle decodes the event and delivers it. Malformed payloads are not retried.
func (j *ReceiptNotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	var event billing.ReceiptEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("receipt notify: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskReceiptNotify)
	return tracker.End(j.Deliverer.Deliver(ctx, event))
}

// Enqueuer is the part of asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReceiptNotifier queues receipt notifications; it satisfies billing.Notifier.
type ReceiptNotifier struct {
	queue Enqueuer
}

// NewReceiptNotifier builds a notifier on top of an asynq client.
func NewReceiptNotifier(queue Enqueuer) *ReceiptNotifier {
	return &ReceiptNotifier{queue: queue}
}

// ReceiptRecorded enqueues the event, once per ledger entry.
func (n *ReceiptNotifier) ReceiptRecorded(ctx context.Context, event billing.ReceiptEvent) error {
	task, err := NewReceiptNotifyTask(event)
	if err != nil {
		return err
	}
	_, err = n.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID("receipt:"+event.EntryID),
		asynq.MaxRetry(5),
	)
	return err
}
