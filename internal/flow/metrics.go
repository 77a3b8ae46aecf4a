package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quizStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mbti_quiz_started_total",
		Help: "Total number of quiz attempts started.",
	})
	quizAnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mbti_quiz_answers_total",
		Help: "Answers recorded, by chosen dimension.",
	}, []string{"dimension"})
	quizCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mbti_quiz_completed_total",
		Help: "Completed quizzes by resulting personality type.",
	}, []string{"type"})
	quizDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbti_quiz_duration_seconds",
		Help:    "Time from start to results.",
		Buckets: []float64{30, 60, 120, 180, 300, 600, 1200},
	})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mbti_quiz_active_sessions",
		Help: "Number of quiz sessions held in memory.",
	})
	narrativeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mbti_quiz_narrative_requests_total",
		Help: "Narrative requests by outcome (ready, unavailable, discarded).",
	}, []string{"status"})
)
