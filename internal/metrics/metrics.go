package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported at /metrics.
type Metrics struct {
	LLMRequests        *prometheus.CounterVec
	LLMLatency         *prometheus.HistogramVec
	LLMParseFallback   *prometheus.CounterVec
	BookingTransitions *prometheus.CounterVec
	TTSRequests        *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	Sessions           prometheus.GaugeFunc
}

// New creates the collectors and registers them on reg. sessions, when not
// nil, backs the live session gauge.
func New(reg prometheus.Registerer, namespace string, sessions func() float64) *Metrics {
	m := &Metrics{
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Chat completion calls by operation and status",
		}, []string{"operation", "status"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "Latency of chat completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 10, 15, 20, 30, 60},
		}, []string{"operation"}),
		LLMParseFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_parse_fallback_total",
			Help:      "Model replies that needed the brace-span fallback, by result",
		}, []string{"operation", "result"}),
		BookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking state submissions by outcome",
		}, []string{"outcome"}),
		TTSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_requests_total",
			Help:      "Text-to-speech calls by status",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "code"}),
	}
	collectors := []prometheus.Collector{
		m.LLMRequests, m.LLMLatency, m.LLMParseFallback,
		m.BookingTransitions, m.TTSRequests, m.HTTPRequests,
	}
	if sessions != nil {
		m.Sessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live conversation sessions",
		}, sessions)
		collectors = append(collectors, m.Sessions)
	}
	reg.MustRegister(collectors...)
	return m
}

// ObserveLLM records one chat completion call.
func (m *Metrics) ObserveLLM(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMRequests.WithLabelValues(operation, status).Inc()
	m.LLMLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ParseFallback(operation string, ok bool) {
	if m == nil {
		return
	}
	result := "recovered"
	if !ok {
		result = "failed"
	}
	m.LLMParseFallback.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) BookingTransition(outcome string) {
	if m == nil {
		return
	}
	m.BookingTransitions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TTSRequest(status string) {
	if m == nil {
		return
	}
	m.TTSRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) HTTPRequest(route string, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}
