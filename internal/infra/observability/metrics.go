package observability

import (
	"time"

	advisordomain "github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the advisor service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	turnDuration        prometheus.Histogram
	turnsTotal          *prometheus.CounterVec
	failedTurns         prometheus.Counter
	lowConfidenceTurns  prometheus.Counter
	categoryMatches     *prometheus.CounterVec
	activeSessions      prometheus.Gauge
	interactionsDropped prometheus.Counter
	interactionErrors   prometheus.Counter
	storeErrors         *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		turnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_turn_duration_seconds",
				Help:    "Time spent answering one conversation turn.",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_turns_total",
				Help: "Successful conversation turns by classified intent.",
			},
			[]string{"intent"},
		),
		failedTurns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_failed_turns_total",
				Help: "Turns answered with the apology reply.",
			},
		),
		lowConfidenceTurns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_low_confidence_turns_total",
				Help: "Turns whose intent confidence was below the threshold.",
			},
		),
		categoryMatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_category_matches_total",
				Help: "Category matches across all turns.",
			},
			[]string{"category"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_active_sessions",
				Help: "Conversation sessions currently held in memory.",
			},
		),
		interactionsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_interactions_dropped_total",
				Help: "Interaction records dropped because the log queue was full.",
			},
		),
		interactionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_interaction_errors_total",
				Help: "Interaction records the log backend failed to store.",
			},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_store_errors_total",
				Help: "Preference store failures by operation.",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordTurn records a successful turn and its category matches.
func (m *Metrics) RecordTurn(intent advisordomain.Intent, categories []advisordomain.CategoryMatch, lowConfidence bool, d time.Duration) {
	m.turnDuration.Observe(d.Seconds())
	m.turnsTotal.WithLabelValues(intent.String()).Inc()
	for _, c := range categories {
		m.categoryMatches.WithLabelValues(c.Category).Inc()
	}
	if lowConfidence {
		m.lowConfidenceTurns.Inc()
	}
}

// IncrFailedTurn counts a turn that ended in the apology reply.
func (m *Metrics) IncrFailedTurn() {
	m.failedTurns.Inc()
}

// SessionOpened increments the active sessions gauge.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed decrements the active sessions gauge.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// IncrInteractionDropped counts an interaction record lost to a full queue.
func (m *Metrics) IncrInteractionDropped() {
	m.interactionsDropped.Inc()
}

// IncrInteractionError counts an interaction record the backend rejected.
func (m *Metrics) IncrInteractionError() {
	m.interactionErrors.Inc()
}

// IncrStoreError increments the preference store error counter.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// GetAdvisorSnapshot returns a snapshot of advisor metrics suitable for the
// GET /v1/metrics/advisor endpoint.
func (m *Metrics) GetAdvisorSnapshot() *domain.AdvisorMetrics {
	// Prometheus counters expose cumulative values.
	byIntent := make(map[string]int64)
	success := float64(0)
	for _, intent := range advisordomain.Intents() {
		v := getCounterValue(m.turnsTotal, intent.String())
		byIntent[intent.String()] = int64(v)
		success += v
	}

	failed := getMetricValue(m.failedTurns)
	total := success + failed
	lowConfidence := getMetricValue(m.lowConfidenceTurns)

	errorRate := float64(0)
	lowConfidenceRate := float64(0)
	share := make(map[string]float64, len(byIntent))
	if total > 0 {
		errorRate = failed / total
	}
	if success > 0 {
		lowConfidenceRate = lowConfidence / success
		for k, v := range byIntent {
			share[k] = float64(v) / success
		}
	}

	avgLatencyMs := float64(0)
	if sum, count := getHistogramSumCount(m.turnDuration); count > 0 {
		avgLatencyMs = sum / float64(count) * 1000
	}

	return &domain.AdvisorMetrics{
		TotalTurns:          int64(total),
		FailedTurns:         int64(failed),
		ErrorRate:           errorRate,
		LowConfidenceRate:   lowConfidenceRate,
		AvgTurnLatencyMs:    avgLatencyMs,
		TurnsByIntent:       byIntent,
		CategoryMatches:     collectCounterVec(m.categoryMatches),
		ActiveSessions:      int64(getMetricValue(m.activeSessions)),
		InteractionsDropped: int64(getMetricValue(m.interactionsDropped)),
		InteractionErrors:   int64(getMetricValue(m.interactionErrors)),
		IntentShare:         share,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return getMetricValue(cv.WithLabelValues(label))
}

// getMetricValue reads a counter or gauge.
func getMetricValue(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	switch {
	case m.Counter != nil && m.Counter.Value != nil:
		return *m.Counter.Value
	case m.Gauge != nil && m.Gauge.Value != nil:
		return *m.Gauge.Value
	}
	return 0
}

func getHistogramSumCount(h prometheus.Histogram) (float64, uint64) {
	m := &dto.Metric{}
	if err := h.Write(m); err != nil || m.Histogram == nil {
		return 0, 0
	}
	return m.Histogram.GetSampleSum(), m.Histogram.GetSampleCount()
}

// collectCounterVec returns every label value seen so far with its count.
func collectCounterVec(cv *prometheus.CounterVec) map[string]int64 {
	out := make(map[string]int64)
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		for _, lp := range m.Label {
			out[lp.GetValue()] = int64(m.Counter.GetValue())
		}
	}
	return out
}
