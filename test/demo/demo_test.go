//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/victornm/asking/internal/api"
	"github.com/victornm/asking/internal/domain"
)

// Runs against a server started with config/config.yaml.
const (
	grpcAddr = "localhost:8081"
	httpAddr = "http://localhost:8080"
	channels = "local:pubsub:user:*"
)

func TestQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		qc    = makeQuizClient(t)
		wg    = new(sync.WaitGroup)
		users = []string{"Ana", "Leo", "Eva"}
	)

	// Prepare Redis subscriber
	subscribe(t, makeRedis(t), wg)

	// Every user plays one full session concurrently, answering the first option.
	var eg errgroup.Group
	for _, u := range users {
		eg.Go(func() error {
			uctx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+signIn(t, u))

			started, err := qc.StartSession(uctx, &api.StartSessionRequest{})
			if err != nil {
				return fmt.Errorf("user %q start session: %w", u, err)
			}

			q := started.Session.Question
			for q != nil {
				resp, err := qc.SubmitAnswer(uctx, &api.SubmitAnswerRequest{
					SessionID: started.Session.SessionID,
					Option:    q.Options[0],
				})
				if err != nil {
					return fmt.Errorf("user %q submit answer: %w", u, err)
				}

				t.Logf("User %q answered: correct=%v score=%d/%d", u, resp.Result.Correct, resp.Result.Score, resp.Result.Total)
				q = resp.Result.Next
			}
			return nil
		})
	}

	require.NoError(t, eg.Wait())

	time.Sleep(2 * time.Second)

	lb, err := qc.ListLeaderboard(ctx, &api.ListLeaderboardRequest{})
	require.NoError(t, err)
	t.Logf("leaderboard:\n%s", formatLeaderboard(lb.Leaderboard))

	wg.Wait()
}

func signIn(t *testing.T, name string) string {
	b, err := json.Marshal(api.GuestRequest{Name: name})
	require.NoError(t, err)

	resp, err := http.Post(httpAddr+"/v1/auth/guest", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var g api.GuestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	return g.Token
}

func makeQuizClient(t *testing.T) *api.QuizServiceClient {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return api.NewQuizServiceClient(conn)
}

func subscribe(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, channels)
	go func() {
		defer wg.Done()

		for msg := range sub {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			switch n.Event {
			case domain.EventNameLeaderboardUpdated:
				var l api.Leaderboard
				if err := json.Unmarshal(n.Data, &l); err != nil {
					t.Logf("unmarshal leaderboard: %v", err)
					continue
				}

				t.Logf("%s leaderboard:\n%s", msg.Channel, formatLeaderboard(l))
			}
		}
	}()
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, pattern string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rc.PSubscribe(ctx, pattern)
	t.Cleanup(func() { sub.Close() })

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}

func formatLeaderboard(l api.Leaderboard) string {
	var s string
	for _, e := range l.Entries {
		s += fmt.Sprintf("%d. %s - %d\n", e.Rank, e.UserName, e.Points)
	}
	return s
}
