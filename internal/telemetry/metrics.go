package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asking"

var (
	QuizSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quiz",
		Name:      "sessions_started_total",
		Help:      "Quiz sessions started.",
	})

	QuizSessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quiz",
		Name:      "sessions_completed_total",
		Help:      "Quiz sessions that reached the last question.",
	})

	QuizSessionsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quiz",
		Name:      "sessions_abandoned_total",
		Help:      "Quiz sessions discarded before completion.",
	})

	// QuizAnswers is labeled by result: correct or wrong.
	QuizAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quiz",
		Name:      "answers_total",
		Help:      "Answers submitted.",
	}, []string{"result"})

	// ScoreWrites is labeled by outcome: ok, retried or failed.
	ScoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "score_writes_total",
		Help:      "Score record writes to the record store.",
	}, []string{"outcome"})

	// LeaderboardReads is labeled by outcome: ok or failed.
	LeaderboardReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "reads_total",
		Help:      "Leaderboard fetches from the record store.",
	}, []string{"outcome"})
)
