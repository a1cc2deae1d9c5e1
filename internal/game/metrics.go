package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mathletes_sessions_created_total",
		Help: "Sessions created, by origin (custom or matched).",
	}, []string{"origin"})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mathletes_sessions_completed_total",
		Help: "Sessions that reached the completed state.",
	})

	problemsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mathletes_problems_generated_total",
		Help: "Problems generated, by kind.",
	}, []string{"kind"})

	answersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mathletes_answers_submitted_total",
		Help: "Answers accepted, by correctness.",
	}, []string{"correct"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mathletes_matchmaking_queue_depth",
		Help: "Players currently waiting in the matchmaking queue.",
	})
)

// SetQueueDepth publishes the matchmaking queue size.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}
