package voice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ttsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mbti_voice_tts_requests_total",
		Help: "Text-to-speech requests by status.",
	}, []string{"status"})
	ttsRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbti_voice_tts_request_duration_seconds",
		Help:    "Latency of text-to-speech requests.",
		Buckets: prometheus.DefBuckets,
	})
	cooldownWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbti_voice_cooldown_wait_seconds",
		Help:    "Time spent waiting for the voice cooldown.",
		Buckets: []float64{0, 0.1, 0.5, 1, 2, 3, 5, 10},
	})
)
