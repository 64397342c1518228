package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/event"
	"github.com/victornm/asking/internal/identity"
	"github.com/victornm/asking/internal/leaderboard"
	"github.com/victornm/asking/internal/quiz"
)

type Config struct {
	GRPC        *grpc.Server
	HTTP        gin.IRouter
	EventBus    *event.Bus
	Quiz        *quiz.Service
	Leaderboard *leaderboard.Service
	Identity    *identity.Service

	// Redis receives per-player notifications. Nil disables them.
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// API exposes the quiz over HTTP, gRPC and a WebSocket leaderboard feed.
type API struct {
	qs *quiz.Service
	ls *leaderboard.Service
	is *identity.Service

	redis  Redis
	prefix string

	hub *hub
}

func New(c Config) *API {
	a := &API{
		qs:     c.Quiz,
		ls:     c.Leaderboard,
		is:     c.Identity,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
		hub:    newHub(),
	}

	if c.GRPC != nil {
		RegisterQuizServiceServer(c.GRPC, a)
	}
	if c.HTTP != nil {
		a.registerHTTP(c.HTTP)
	}

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(_ context.Context, e event.Event) error {
		a.hub.broadcast(leaderboardOf(e.(domain.EventLeaderboardUpdated).Leaderboard.Entries))
		return nil
	})
	if a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
	}

	return a
}

type (
	Leaderboard struct {
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		Rank     int    `json:"rank"`
		UserName string `json:"userName"`
		Points   int    `json:"points"`
	}

	// AnswerResult is the outcome of one submitted answer.
	AnswerResult struct {
		SessionID     string             `json:"sessionId"`
		Correct       bool               `json:"correct"`
		CorrectAnswer string             `json:"correctAnswer"`
		State         string             `json:"state"`
		Index         int                `json:"index"`
		Total         int                `json:"total"`
		Score         int                `json:"score"`
		Next          *quiz.QuestionView `json:"next,omitempty"`
	}
)

func leaderboardOf(records []domain.ScoreRecord) Leaderboard {
	l := Leaderboard{Entries: make([]LeaderboardEntry, 0, len(records))}
	for i, r := range records {
		l.Entries = append(l.Entries, LeaderboardEntry{
			Rank:     i + 1,
			UserName: r.UserName,
			Points:   r.Points,
		})
	}
	return l
}

func answerResultOf(resp *quiz.SubmitAnswerResponse) *AnswerResult {
	return &AnswerResult{
		SessionID:     resp.SessionID,
		Correct:       resp.Status.Correct,
		CorrectAnswer: resp.Status.CorrectAnswer,
		State:         resp.Status.State.String(),
		Index:         resp.Status.Index,
		Total:         resp.Status.Total,
		Score:         resp.Status.Score,
		Next:          resp.Next,
	}
}
