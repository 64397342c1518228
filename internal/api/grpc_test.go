package api_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/victornm/asking/internal/api"
	"github.com/victornm/asking/internal/identity"
)

func TestGRPC_QuizService(t *testing.T) {
	ctx := context.Background()
	f := makeAPI(t)
	c := makeQuizClient(t, f.grpc)

	var guest api.GuestResponse
	f.do(t, "POST", "/v1/auth/guest", "", api.GuestRequest{Name: "Leo"}, &guest)

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+guest.Token)
	started, err := c.StartSession(authed, &api.StartSessionRequest{})
	require.NoError(t, err)
	require.Equal(t, "Leo", started.Session.UserName)
	require.Equal(t, questionsPerSession, started.Session.Total)
	require.NotNil(t, started.Session.Question)

	var last *api.AnswerResult
	for range started.Session.Total {
		resp, err := c.SubmitAnswer(ctx, &api.SubmitAnswerRequest{SessionID: started.Session.SessionID, Option: "sí"})
		require.NoError(t, err)
		last = resp.Result
	}
	require.Equal(t, "complete", last.State)
	require.Equal(t, questionsPerSession, last.Score)

	f.waitLeaderboard(t, 1)
	lb, err := c.ListLeaderboard(ctx, &api.ListLeaderboardRequest{})
	require.NoError(t, err)
	require.Equal(t, []api.LeaderboardEntry{{Rank: 1, UserName: "Leo", Points: questionsPerSession}}, lb.Leaderboard.Entries)
}

func TestGRPC_Errors(t *testing.T) {
	ctx := context.Background()
	f := makeAPI(t)
	c := makeQuizClient(t, f.grpc)

	started, err := c.StartSession(ctx, &api.StartSessionRequest{})
	require.NoError(t, err)
	require.Equal(t, identity.Unauthenticated, started.Session.UserName)

	_, err = c.SubmitAnswer(ctx, &api.SubmitAnswerRequest{SessionID: "nope", Option: "sí"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func makeQuizClient(t *testing.T, s *grpc.Server) *api.QuizServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return api.NewQuizServiceClient(conn)
}
