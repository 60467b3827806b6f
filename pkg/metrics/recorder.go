package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder receives summarization measurements. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// ObserveGeneration records one completed model generation.
	ObserveGeneration(duration time.Duration, usage TokenUsage)
	// IncTruncated counts an input that exceeded the encoder limit.
	IncTruncated()
	// IncResult counts a pipeline outcome by kind ("success" or an error code).
	IncResult(kind string)
}

// NewRegistry builds the process registry exposed on /metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	generationDuration prometheus.Histogram
	outputTokens       prometheus.Histogram
	inputTokens        prometheus.Histogram
	truncated          prometheus.Counter
	results            *prometheus.CounterVec
}

// NewPrometheusRecorder registers the summarizer collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_generation_duration_seconds",
			Help:    "Time spent in beam search for one summary",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		outputTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_output_tokens",
			Help:    "Distribution of generated summary lengths in tokens",
			Buckets: []float64{40, 60, 80, 100, 120, 150},
		}),
		inputTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_input_tokens",
			Help:    "Distribution of encoded input lengths in tokens",
			Buckets: []float64{32, 64, 128, 256, 384, 512},
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summarizer_input_truncated_total",
			Help: "Inputs truncated to the encoder token limit",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_results_total",
			Help: "Pipeline results by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.generationDuration, r.outputTokens, r.inputTokens, r.truncated, r.results)
	return r
}

// ObserveGeneration implements Recorder.
func (r *PrometheusRecorder) ObserveGeneration(duration time.Duration, usage TokenUsage) {
	r.generationDuration.Observe(duration.Seconds())
	r.inputTokens.Observe(float64(usage.PromptTokens))
	r.outputTokens.Observe(float64(usage.CompletionTokens))
}

// IncTruncated implements Recorder.
func (r *PrometheusRecorder) IncTruncated() {
	r.truncated.Inc()
}

// IncResult implements Recorder.
func (r *PrometheusRecorder) IncResult(kind string) {
	r.results.WithLabelValues(kind).Inc()
}

// NoopRecorder discards all measurements.
type NoopRecorder struct{}

func (NoopRecorder) ObserveGeneration(time.Duration, TokenUsage) {}
func (NoopRecorder) IncTruncated()                               {}
func (NoopRecorder) IncResult(string)                            {}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = NoopRecorder{}
)
