package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ledgerEntries   *prometheus.CounterVec
	ledgerRejects   *prometheus.CounterVec
	overdue         prometheus.Gauge
	overdueAmount   prometheus.Gauge
}

// NewMetrics menginisialisasi registry, metrik HTTP dan metrik ledger.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallybook_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tallybook_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	entries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallybook_ledger_entries_total",
		Help: "Ledger entries recorded, by kind.",
	}, []string{"kind"})
	rejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallybook_ledger_rejections_total",
		Help: "Ledger entries rejected, by reason.",
	}, []string{"reason"})
	overdue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tallybook_invoices_overdue",
		Help: "Invoices overdue at the last sweep.",
	})
	overdueAmount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tallybook_invoices_overdue_amount",
		Help: "Outstanding GST-inclusive amount of overdue invoices at the last sweep.",
	})
	registry.MustRegister(requests, duration, entries, rejects, overdue, overdueAmount)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ledgerEntries:   entries,
		ledgerRejects:   rejects,
		overdue:         overdue,
		overdueAmount:   overdueAmount,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// LedgerEntryRecorded menghitung entri ledger yang berhasil dicatat.
func (m *Metrics) LedgerEntryRecorded(kind string) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind).Inc()
}

// LedgerEntryRejected menghitung entri ledger yang ditolak.
func (m *Metrics) LedgerEntryRejected(reason string) {
	if m == nil {
		return
	}
	m.ledgerRejects.WithLabelValues(reason).Inc()
}

// SetOverdue menyimpan hasil sweep invoice terakhir.
func (m *Metrics) SetOverdue(count int, outstanding float64) {
	if m == nil {
		return
	}
	m.overdue.Set(float64(count))
	m.overdueAmount.Set(outstanding)
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
