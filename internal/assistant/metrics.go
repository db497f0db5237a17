package assistant

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "model_loads_total",
			Help:      "Model load attempts by result",
		},
		[]string{"result"},
	)

	modelLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "model_load_duration_seconds",
			Help:      "Duration of model load attempts in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	modelLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "model_loaded",
			Help:      "1 when the model is loaded, else 0",
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "generations_total",
			Help:      "Generate calls by result",
		},
		[]string{"result"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "generation_duration_seconds",
			Help:      "Duration of provider generations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	completionTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "completion_tokens_total",
			Help:      "Tokens generated by the provider",
		},
	)

	queueWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "deephelper",
			Subsystem: "assistant",
			Name:      "queue_waiting",
			Help:      "Chats holding a queue slot but not yet generating",
		},
	)
)

func init() {
	prometheus.MustRegister(modelLoadsTotal, modelLoadDuration, modelLoaded,
		generationsTotal, generationDuration, completionTokens, queueWaiting)
}
