package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/victornm/asking/internal/api"
	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/event"
	"github.com/victornm/asking/internal/identity"
	"github.com/victornm/asking/internal/leaderboard"
	"github.com/victornm/asking/internal/quiz"
	"github.com/victornm/asking/internal/store/memory"
)

const questionsPerSession = 2

type fixture struct {
	eb     *event.Bus
	engine *gin.Engine
	grpc   *grpc.Server
	ls     *leaderboard.Service
}

type options func(c *api.Config)

func withRedis(r api.Redis, prefix string) options {
	return func(c *api.Config) {
		c.Redis = r
		c.PubsubPrefix = prefix
	}
}

func makeAPI(t *testing.T, opts ...options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bank, err := quiz.NewBank([]domain.Question{
		{Text: "¿El agua moja?", Options: []string{"sí", "no"}, CorrectAnswer: "sí"},
		{Text: "¿El fuego quema?", Options: []string{"sí", "no"}, CorrectAnswer: "sí"},
		{Text: "¿El hielo es frío?", Options: []string{"sí", "no"}, CorrectAnswer: "sí"},
	})
	require.NoError(t, err)

	f := &fixture{
		eb:     event.NewBus(),
		engine: gin.New(),
		grpc:   grpc.NewServer(),
	}
	t.Cleanup(f.eb.Stop)

	f.ls = leaderboard.NewService(leaderboard.Config{
		EventBus:     f.eb,
		Store:        memory.NewScoreStore(),
		WriteRetries: 1,
	})

	c := api.Config{
		GRPC:     f.grpc,
		HTTP:     f.engine,
		EventBus: f.eb,
		Quiz: quiz.NewService(quiz.Config{
			EventBus:            f.eb,
			Bank:                bank,
			QuestionsPerSession: questionsPerSession,
			Rand:                rand.New(rand.NewPCG(1, 2)),
		}),
		Leaderboard: f.ls,
		Identity: identity.NewService(identity.Config{
			Secret:   "test-secret",
			Profiles: memory.NewProfileStore(),
		}),
	}
	for _, opt := range opts {
		opt(&c)
	}
	api.New(c)

	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

// play runs a full session over HTTP answering every question with option.
func (f *fixture) play(t *testing.T, token, option string) api.AnswerResult {
	t.Helper()

	var ss quiz.SessionView
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/sessions", token, nil, &ss))

	var res api.AnswerResult
	for range ss.Total {
		code := f.do(t, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/answers", ss.SessionID), "", api.AnswerRequest{Option: option}, &res)
		require.Equal(t, http.StatusOK, code)
	}
	return res
}

func (f *fixture) waitLeaderboard(t *testing.T, n int) []domain.ScoreRecord {
	t.Helper()

	var got []domain.ScoreRecord
	require.Eventually(t, func() bool {
		got = f.ls.ListRanked(context.Background())
		return len(got) == n
	}, time.Second, 10*time.Millisecond)
	return got
}
