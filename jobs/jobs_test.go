package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/billing"
	jobmetrics "github.com/tallybook/tallybook/internal/jobs"
)

type stubSummarizer struct {
	summary billing.StatusSummary
	err     error
}

func (s stubSummarizer) SummarizeStatuses(context.Context) (billing.StatusSummary, error) {
	return s.summary, s.err
}

type gaugeSpy struct {
	count  int
	amount float64
	calls  int
}

func (g *gaugeSpy) SetOverdue(count int, outstanding float64) {
	g.count, g.amount = count, outstanding
	g.calls++
}

func TestOverdueSweepPublishesGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	gauge := &gaugeSpy{}
	job := NewOverdueSweepJob(stubSummarizer{summary: billing.StatusSummary{
		Counts: map[billing.Status]int{billing.StatusOverdue: 2, billing.StatusPaid: 4},
		Outstanding: map[billing.Status]decimal.Decimal{
			billing.StatusOverdue: decimal.RequireFromString("160.50"),
		},
	}}, gauge, nil, metrics)

	task, err := NewOverdueSweepTask("cron")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, gauge.calls)
	assert.Equal(t, 2, gauge.count)
	assert.InDelta(t, 160.50, gauge.amount, 0.001)

	count, err := testutil.GatherAndCount(reg, "tallybook_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOverdueSweepFailureLeavesGauge(t *testing.T) {
	gauge := &gaugeSpy{}
	boom := errors.New("db down")
	job := NewOverdueSweepJob(stubSummarizer{err: boom}, gauge, nil, nil)

	task, err := NewOverdueSweepTask("manual")
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, gauge.calls)
}

func TestOverdueSweepRejectsBadPayload(t *testing.T) {
	job := NewOverdueSweepJob(stubSummarizer{}, nil, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskOverdueSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type deliverySpy struct {
	events []billing.ReceiptEvent
	err    error
}

func (d *deliverySpy) Deliver(_ context.Context, event billing.ReceiptEvent) error {
	d.events = append(d.events, event)
	return d.err
}

type enqueueSpy struct {
	tasks []*asynq.Task
	err   error
}

func (e *enqueueSpy) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func TestReceiptNotificationRoundTrip(t *testing.T) {
	queue := &enqueueSpy{}
	notifier := NewReceiptNotifier(queue)
	event := billing.ReceiptEvent{
		EntryID:       "r-1",
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-0001",
		ContactID:     "c-1",
		Kind:          billing.EntryPayment,
		AmountInclGST: decimal.RequireFromString("50.00"),
		Outstanding:   decimal.RequireFromString("60.00"),
		Status:        billing.StatusUnpaid,
	}
	require.NoError(t, notifier.ReceiptRecorded(context.Background(), event))
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskReceiptNotify, queue.tasks[0].Type())

	delivery := &deliverySpy{}
	job := &ReceiptNotifyJob{Deliverer: delivery}
	require.NoError(t, job.Handle(context.Background(), queue.tasks[0]))
	require.Len(t, delivery.events, 1)
	got := delivery.events[0]
	assert.Equal(t, "INV-0001", got.InvoiceNumber)
	assert.True(t, got.AmountInclGST.Equal(event.AmountInclGST))
	assert.Equal(t, billing.StatusUnpaid, got.Status)
}

func TestReceiptNotifierSurfacesQueueError(t *testing.T) {
	boom := errors.New("redis unavailable")
	notifier := NewReceiptNotifier(&enqueueSpy{err: boom})
	err := notifier.ReceiptRecorded(context.Background(), billing.ReceiptEvent{EntryID: "r-2"})
	assert.ErrorIs(t, err, boom)
}

func TestReceiptNotifyJobSkipsMalformedPayload(t *testing.T) {
	delivery := &deliverySpy{}
	job := &ReceiptNotifyJob{Deliverer: delivery}
	err := job.Handle(context.Background(), asynq.NewTask(TaskReceiptNotify, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, delivery.events)
}

func TestLogDelivererAcceptsEvent(t *testing.T) {
	assert.NoError(t, LogDeliverer{}.Deliver(context.Background(), billing.ReceiptEvent{InvoiceNumber: "INV-1"}))
}

type inspectorStub struct {
	info *asynq.QueueInfo
	err  error
}

func (s inspectorStub) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{name: "no inspector", status: http.StatusOK},
		{name: "queue info", inspector: inspectorStub{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, status: http.StatusOK, pending: 3},
		{name: "redis down", inspector: inspectorStub{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body queueHealth
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, QueueDefault, body.Queue)
			assert.Equal(t, tc.pending, body.Pending)
		})
	}
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	assert.Error(t, err)
}
