package quiz

import (
	"math/rand/v2"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
)

type State int

const (
	StateInProgress State = iota
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Status describes a session right after an answer was submitted.
type Status struct {
	State State
	// Index is the position of the next question, equal to Total once complete.
	Index int
	Total int
	Score int

	// Correct and CorrectAnswer describe the answer that produced this status.
	Correct       bool
	CorrectAnswer string
}

func (s Status) Complete() bool {
	return s.State == StateComplete
}

// Session is one run through a fixed list of questions. It is not safe for
// concurrent use; a session belongs to a single player flow.
type Session struct {
	questions []domain.Question
	index     int
	score     int
}

// Select draws count distinct questions from bank uniformly at random, by
// shuffling the whole pool and taking the first count.
func Select(bank *Bank, count int, rnd *rand.Rand) (*Session, error) {
	if count < 1 || count > bank.Len() {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid selection: count %d outside [1, %d]", count, bank.Len()),
		)
	}

	qs := bank.Questions()
	rnd.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})

	return NewSession(qs[:count:count]), nil
}

// NewSession starts a session over questions in the given order.
func NewSession(questions []domain.Question) *Session {
	return &Session{questions: questions}
}

// Current returns the question awaiting an answer, or false once complete.
func (s *Session) Current() (domain.Question, bool) {
	if s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

func (s *Session) Index() int { return s.index }

func (s *Session) Len() int { return len(s.questions) }

func (s *Session) Score() int { return s.score }

func (s *Session) State() State {
	if s.index >= len(s.questions) {
		return StateComplete
	}
	return StateInProgress
}

// SubmitAnswer scores option against the current question and moves on to
// the next one whether or not it was right. An option that is not among the
// question's options simply counts as wrong.
func (s *Session) SubmitAnswer(option string) (Status, error) {
	q, ok := s.Current()
	if !ok {
		return Status{}, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session already complete with score %d", s.score),
		)
	}

	correct := option == q.CorrectAnswer
	if correct {
		s.score++
	}
	s.index++

	return Status{
		State:         s.State(),
		Index:         s.index,
		Total:         len(s.questions),
		Score:         s.score,
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
	}, nil
}
