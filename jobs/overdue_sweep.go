package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tallybook/tallybook/internal/billing"
	jobmetrics "github.com/tallybook/tallybook/internal/jobs"
)

// StatusSummarizer derives invoice statuses as of now.
type StatusSummarizer interface {
	SummarizeStatuses(ctx context.Context) (billing.StatusSummary, error)
}

// OverdueGauge receives the sweep result.
type OverdueGauge interface {
	SetOverdue(count int, outstanding float64)
}

// OverdueSweepJob counts overdue invoices on a schedule.
type OverdueSweepJob struct {
	Summarizer StatusSummarizer
	Gauge      OverdueGauge
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewOverdueSweepJob initialises the sweep handler.
func NewOverdueSweepJob(summarizer StatusSummarizer, gauge OverdueGauge, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{Summarizer: summarizer, Gauge: gauge, Logger: logger, Metrics: metrics}
}

// Handle executes one sweep.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Summarizer == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	var payload OverdueSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskOverdueSweep)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("job", TaskOverdueSweep), slog.String("trigger", payload.Trigger))
	summary, err := j.Summarizer.SummarizeStatuses(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.Any("error", err))
		return err
	}

	overdue := summary.Counts[billing.StatusOverdue]
	amount := summary.Outstanding[billing.StatusOverdue]
	if j.Gauge != nil {
		j.Gauge.SetOverdue(overdue, amount.InexactFloat64())
	}
	logger.Info("overdue sweep complete",
		slog.Int("overdue", overdue),
		slog.String("overdue_outstanding", amount.StringFixed(2)),
		slog.Int("unpaid", summary.Counts[billing.StatusUnpaid]),
		slog.Int("paid", summary.Counts[billing.StatusPaid]),
		slog.Int("written_off", summary.Counts[billing.StatusWrittenOff]),
	)
	return nil
}

func (j *OverdueSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
