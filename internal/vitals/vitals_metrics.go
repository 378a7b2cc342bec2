package vitals

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the vitals subsystem.
type Metrics struct {
	RecordingsTotal      *prometheus.CounterVec
	RecordDuration       prometheus.Histogram
	NEWS2Score           prometheus.Histogram
	InterpretationsTotal *prometheus.CounterVec
	LLMCallsTotal        *prometheus.CounterVec
	LLMDuration          prometheus.Histogram
	FallbacksTotal       prometheus.Counter
	NotifyFailuresTotal  prometheus.Counter
}

// NewMetrics registers and returns vitals metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalis_recordings_total",
			Help: "Total vitals recordings by alert level.",
		}, []string{"level"}),
		RecordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalis_record_duration_seconds",
			Help:    "End-to-end duration of the recording workflow.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		}),
		NEWS2Score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalis_news2_score",
			Help:    "Distribution of computed NEWS2 scores.",
			Buckets: prometheus.LinearBuckets(0, 1, 16), // 0 .. 15
		}),
		InterpretationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalis_interpretations_total",
			Help: "Total interpretations by producing tier.",
		}, []string{"source"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalis_llm_calls_total",
			Help: "Total generative provider calls by outcome.",
		}, []string{"outcome"}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalis_llm_call_duration_seconds",
			Help:    "Duration of individual generative provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}),
		FallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitalis_interpretation_fallbacks_total",
			Help: "Total interpretations that fell back to the rule tier.",
		}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitalis_notify_failures_total",
			Help: "Total failed high-risk notifications.",
		}),
	}

	reg.MustRegister(
		m.RecordingsTotal,
		m.RecordDuration,
		m.NEWS2Score,
		m.InterpretationsTotal,
		m.LLMCallsTotal,
		m.LLMDuration,
		m.FallbacksTotal,
		m.NotifyFailuresTotal,
	)

	return m
}

// EngineHooks lets the engine report instrumentation events without holding a
// metrics dependency. Nil funcs are skipped.
type EngineHooks struct {
	OnLLMCall  func(duration float64, err error)
	OnFallback func()
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(duration float64, err error) {
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			m.LLMCallsTotal.WithLabelValues(outcome).Inc()
			m.LLMDuration.Observe(duration)
		},
		OnFallback: func() {
			m.FallbacksTotal.Inc()
		},
	}
}
