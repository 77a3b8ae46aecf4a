package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	insightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbti_gemini_requests_total",
			Help: "Successful /api/gemini replies by personality type.",
		},
		[]string{"type"},
	)

	voiceClipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mbti_voice_clips_served_total",
		Help: "Audio clips returned by /api/voice/speak.",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mbti_ws_connections_active",
		Help: "Open quiz WebSocket connections.",
	})

	wsCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbti_ws_commands_total",
			Help: "WebSocket commands by type and outcome.",
		},
		[]string{"type", "status"},
	)
)
