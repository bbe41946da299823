package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QuotaConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lumix_demo_quota_consumed_total",
		Help: "Demo-mode AI invocations admitted by the quota gate.",
	}, []string{"feature"})

	QuotaExceeded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lumix_demo_quota_exceeded_total",
		Help: "Demo-mode AI invocations refused by the quota gate.",
	}, []string{"feature"})

	AIFallback = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lumix_ai_fallback_total",
		Help: "Feature calls answered by the local heuristic after a backend failure.",
	}, []string{"feature"})

	SpeechChunks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lumix_speech_chunks_total",
		Help: "Narration chunks by outcome (spoken, stale, failed).",
	}, []string{"outcome"})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(QuotaConsumed, QuotaExceeded, AIFallback, SpeechChunks)
}

func Registry() *prometheus.Registry { return registry }
