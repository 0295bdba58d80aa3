package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for transcription cycles
const (
	OutcomeSuccess       = "success"
	OutcomeDecodeError   = "decode_error"
	OutcomeEngineError   = "engine_error"
	OutcomeDiscarded     = "discarded"
	PhasePartial         = "partial"
	PhaseFinal           = "final"
	ChatOutcomeReply     = "reply"
	ChatOutcomeEmpty     = "empty_query"
	ChatOutcomeEngineErr = "engine_error"
)

// Metrics contains all Prometheus metrics for the relay
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	ActiveSessions prometheus.Gauge
	SessionsOpened prometheus.Counter
	SessionsClosed prometheus.Counter
	BufferedBytes  prometheus.Gauge

	// Audio metrics
	ChunksReceived prometheus.Counter
	ChunksDropped  prometheus.Counter
	ChunkSize      prometheus.Histogram

	// Transcription metrics
	Transcriptions        *prometheus.CounterVec
	TranscriptionDuration *prometheus.HistogramVec
	TranscriptsEmitted    *prometheus.CounterVec

	// Chat metrics
	ChatRequests *prometheus.CounterVec
	ChatDuration prometheus.Histogram
}

// NewMetrics creates all metrics on a dedicated registry, so several
// instances can coexist (one per test, for example).
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jarvis_active_sessions",
			Help: "Current number of open transcription sessions",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "jarvis_sessions_opened_total",
			Help: "Total number of sessions opened",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "jarvis_sessions_closed_total",
			Help: "Total number of sessions closed",
		}),
		BufferedBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jarvis_buffered_audio_bytes",
			Help: "Compressed audio bytes held across all session buffers",
		}),

		ChunksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "jarvis_audio_chunks_received_total",
			Help: "Total number of audio chunks received",
		}),
		ChunksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "jarvis_audio_chunks_dropped_total",
			Help: "Audio chunks dropped because their session was gone",
		}),
		ChunkSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jarvis_audio_chunk_size_bytes",
			Help:    "Size of received audio chunks",
			Buckets: prometheus.ExponentialBuckets(256, 2, 12), // 256B to ~512KB
		}),

		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jarvis_transcriptions_total",
			Help: "Decode+transcribe cycles by phase and outcome",
		}, []string{"phase", "outcome"}),
		TranscriptionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jarvis_transcription_duration_seconds",
			Help:    "Time spent decoding and transcribing the full buffer",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"phase"}),
		TranscriptsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jarvis_transcripts_emitted_total",
			Help: "Transcript events sent to clients",
		}, []string{"phase"}),

		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jarvis_chat_requests_total",
			Help: "Chat relay requests by outcome",
		}, []string{"outcome"}),
		ChatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jarvis_chat_duration_seconds",
			Help:    "Reply engine latency",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~13s
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
