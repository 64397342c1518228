package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
	"github.com/victornm/asking/internal/event"
	"github.com/victornm/asking/internal/telemetry"
)

const DefaultQuestionsPerSession = 5

type Config struct {
	// EventBus defaults to a private bus, so completed sessions reach no subscriber.
	EventBus *event.Bus
	Bank     *Bank
	// QuestionsPerSession defaults to DefaultQuestionsPerSession, capped at the bank size.
	QuestionsPerSession int
	// Rand is the source used to draw questions. Defaults to a randomly seeded PCG.
	Rand *rand.Rand
}

// Service runs quiz sessions and announces completed ones on the event bus.
type Service struct {
	eb    *event.Bus
	bank  *Bank
	count int

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu       sync.Mutex
	id       string
	userName string
	session  *Session
}

func NewService(c Config) *Service {
	bank := c.Bank
	if bank == nil {
		bank = DefaultBank()
	}

	count := c.QuestionsPerSession
	if count <= 0 {
		count = DefaultQuestionsPerSession
	}
	count = min(count, bank.Len())

	rnd := c.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	eb := c.EventBus
	if eb == nil {
		eb = event.NewBus()
	}

	return &Service{
		eb:       eb,
		bank:     bank,
		count:    count,
		rnd:      rnd,
		sessions: make(map[string]*liveSession),
	}
}

// QuestionView is a question as shown to the player, without its answer.
type QuestionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type SessionView struct {
	SessionID string        `json:"sessionId"`
	UserName  string        `json:"userName"`
	State     string        `json:"state"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Score     int           `json:"score"`
	Question  *QuestionView `json:"question,omitempty"`
}

type StartSessionRequest struct {
	UserName string
}

// StartSession draws a fresh set of questions for the user.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*SessionView, error) {
	if req.UserName == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("user name is required"))
	}

	s.rndMu.Lock()
	ss, err := Select(s.bank, s.count, s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	ls := &liveSession{
		id:       id.String(),
		userName: req.UserName,
		session:  ss,
	}

	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()

	telemetry.QuizSessionsStarted.Inc()
	slog.InfoContext(ctx, "quiz: session started", "session", ls.id, "user", ls.userName, "questions", ss.Len())

	return viewOf(ls), nil
}

type GetSessionRequest struct {
	SessionID string
}

func (s *Service) GetSession(_ context.Context, req GetSessionRequest) (*SessionView, error) {
	ls, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	return viewOf(ls), nil
}

type SubmitAnswerRequest struct {
	SessionID string
	Option    string
}

type SubmitAnswerResponse struct {
	SessionID string
	Status    Status
	// Next is the following question, nil once the session is complete.
	Next *QuestionView
}

// SubmitAnswer answers the current question of a session. When the answer
// completes the session, the session is discarded and its result is published
// without waiting for it to be persisted.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	ls, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	st, err := ls.session.SubmitAnswer(req.Option)
	var next *QuestionView
	if q, ok := ls.session.Current(); ok {
		next = questionView(q)
	}
	ls.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if st.Correct {
		telemetry.QuizAnswers.WithLabelValues("correct").Inc()
	} else {
		telemetry.QuizAnswers.WithLabelValues("wrong").Inc()
	}

	if st.Complete() {
		s.complete(ctx, ls, st.Score)
	}

	return &SubmitAnswerResponse{
		SessionID: ls.id,
		Status:    st,
		Next:      next,
	}, nil
}

func (s *Service) complete(ctx context.Context, ls *liveSession, score int) {
	s.mu.Lock()
	delete(s.sessions, ls.id)
	s.mu.Unlock()

	telemetry.QuizSessionsCompleted.Inc()
	slog.InfoContext(ctx, "quiz: session completed", "session", ls.id, "user", ls.userName, "score", score)

	s.eb.Publish(ctx, domain.EventSessionCompleted{
		Result: domain.SessionResult{
			SessionID: ls.id,
			UserName:  ls.userName,
			Points:    score,
		},
	})
}

type AbandonSessionRequest struct {
	SessionID string
}

// AbandonSession discards a session without recording a result.
func (s *Service) AbandonSession(ctx context.Context, req AbandonSessionRequest) error {
	s.mu.Lock()
	_, ok := s.sessions[req.SessionID]
	delete(s.sessions, req.SessionID)
	s.mu.Unlock()

	if !ok {
		return sessionNotFound(req.SessionID)
	}

	telemetry.QuizSessionsAbandoned.Inc()
	slog.InfoContext(ctx, "quiz: session abandoned", "session", req.SessionID)
	return nil
}

func (s *Service) lookup(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return ls, nil
}

func sessionNotFound(id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: session=%s", id))
}

// viewOf must be called with ls.mu held or before ls is shared.
func viewOf(ls *liveSession) *SessionView {
	v := &SessionView{
		SessionID: ls.id,
		UserName:  ls.userName,
		State:     ls.session.State().String(),
		Index:     ls.session.Index(),
		Total:     ls.session.Len(),
		Score:     ls.session.Score(),
	}
	if q, ok := ls.session.Current(); ok {
		v.Question = questionView(q)
	}
	return v
}

func questionView(q domain.Question) *QuestionView {
	return &QuestionView{
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
}
