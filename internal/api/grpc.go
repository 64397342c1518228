package api

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"github.com/victornm/asking/internal/errors"
	"github.com/victornm/asking/internal/quiz"
)

// CodecName is the gRPC content-subtype the quiz service speaks.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

type (
	StartSessionRequest struct{}

	StartSessionResponse struct {
		Session *quiz.SessionView `json:"session"`
	}

	SubmitAnswerRequest struct {
		SessionID string `json:"sessionId"`
		Option    string `json:"option"`
	}

	SubmitAnswerResponse struct {
		Result *AnswerResult `json:"result"`
	}

	ListLeaderboardRequest struct{}

	ListLeaderboardResponse struct {
		Leaderboard Leaderboard `json:"leaderboard"`
	}
)

type QuizServiceServer interface {
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	SubmitAnswer(context.Context, *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	ListLeaderboard(context.Context, *ListLeaderboardRequest) (*ListLeaderboardResponse, error)
}

// StartSession starts a session for the caller named by the authorization metadata.
func (a *API) StartSession(ctx context.Context, _ *StartSessionRequest) (*StartSessionResponse, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("authorization"); len(v) > 0 {
			token = bearerToken(v[0])
		}
	}

	ss, err := a.qs.StartSession(ctx, quiz.StartSessionRequest{
		UserName: a.is.ResolveDisplayName(ctx, token),
	})
	if err != nil {
		return nil, errors.Convert(err)
	}

	return &StartSessionResponse{Session: ss}, nil
}

func (a *API) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	resp, err := a.qs.SubmitAnswer(ctx, quiz.SubmitAnswerRequest{
		SessionID: req.SessionID,
		Option:    req.Option,
	})
	if err != nil {
		return nil, errors.Convert(err)
	}

	return &SubmitAnswerResponse{Result: answerResultOf(resp)}, nil
}

func (a *API) ListLeaderboard(ctx context.Context, _ *ListLeaderboardRequest) (*ListLeaderboardResponse, error) {
	return &ListLeaderboardResponse{Leaderboard: leaderboardOf(a.ls.ListRanked(ctx))}, nil
}

const (
	quizServiceName           = "asking.v1.QuizService"
	startSessionFullMethod    = "/" + quizServiceName + "/StartSession"
	submitAnswerFullMethod    = "/" + quizServiceName + "/SubmitAnswer"
	listLeaderboardFullMethod = "/" + quizServiceName + "/ListLeaderboard"
)

func RegisterQuizServiceServer(s grpc.ServiceRegistrar, srv QuizServiceServer) {
	s.RegisterService(&quizServiceDesc, srv)
}

var quizServiceDesc = grpc.ServiceDesc{
	ServiceName: quizServiceName,
	HandlerType: (*QuizServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartSession",
			Handler: unaryHandler(startSessionFullMethod, func(srv QuizServiceServer, ctx context.Context, req *StartSessionRequest) (any, error) {
				return srv.StartSession(ctx, req)
			}),
		},
		{
			MethodName: "SubmitAnswer",
			Handler: unaryHandler(submitAnswerFullMethod, func(srv QuizServiceServer, ctx context.Context, req *SubmitAnswerRequest) (any, error) {
				return srv.SubmitAnswer(ctx, req)
			}),
		},
		{
			MethodName: "ListLeaderboard",
			Handler: unaryHandler(listLeaderboardFullMethod, func(srv QuizServiceServer, ctx context.Context, req *ListLeaderboardRequest) (any, error) {
				return srv.ListLeaderboard(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "asking/v1/quiz.json",
}

func unaryHandler[Req any](fullMethod string, call func(QuizServiceServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QuizServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QuizServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QuizServiceClient calls the quiz service with the JSON codec.
type QuizServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQuizServiceClient(cc grpc.ClientConnInterface) *QuizServiceClient {
	return &QuizServiceClient{cc: cc}
}

func (c *QuizServiceClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	out := new(StartSessionResponse)
	if err := c.cc.Invoke(ctx, startSessionFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) SubmitAnswer(ctx context.Context, in *SubmitAnswerRequest, opts ...grpc.CallOption) (*SubmitAnswerResponse, error) {
	out := new(SubmitAnswerResponse)
	if err := c.cc.Invoke(ctx, submitAnswerFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) ListLeaderboard(ctx context.Context, in *ListLeaderboardRequest, opts ...grpc.CallOption) (*ListLeaderboardResponse, error) {
	out := new(ListLeaderboardResponse)
	if err := c.cc.Invoke(ctx, listLeaderboardFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
