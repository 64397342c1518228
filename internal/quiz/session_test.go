package quiz_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
	"github.com/victornm/asking/internal/quiz"
)

func TestSelect_DistinctQuestionsFromBank(t *testing.T) {
	bank := quiz.DefaultBank()
	inBank := make(map[string]bool)
	for _, q := range bank.Questions() {
		inBank[q.Text] = true
	}

	for count := 1; count <= bank.Len(); count++ {
		for seed := uint64(0); seed < 20; seed++ {
			s, err := quiz.Select(bank, count, rand.New(rand.NewPCG(seed, 7)))
			require.NoError(t, err)
			require.Equal(t, count, s.Len())

			seen := make(map[string]bool)
			for {
				q, ok := s.Current()
				if !ok {
					break
				}
				require.True(t, inBank[q.Text], "question %q not from bank", q.Text)
				require.False(t, seen[q.Text], "question %q drawn twice", q.Text)
				seen[q.Text] = true

				_, err := s.SubmitAnswer(q.CorrectAnswer)
				require.NoError(t, err)
			}
			require.Len(t, seen, count)
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	bank := quiz.DefaultBank()

	a, err := quiz.Select(bank, 5, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	b, err := quiz.Select(bank, 5, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	qa, _ := a.Current()
	qb, _ := b.Current()
	require.Equal(t, qa, qb)
}

func TestSelect_InvalidCount(t *testing.T) {
	bank := quiz.DefaultBank()
	rnd := rand.New(rand.NewPCG(1, 2))

	for _, count := range []int{0, -1, bank.Len() + 1} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			_, err := quiz.Select(bank, count, rnd)
			require.True(t, errors.HasCode(err, errors.CodeInvalidArgument), "got %v", err)
		})
	}
}

func TestSession_SubmitAnswer(t *testing.T) {
	questions := []domain.Question{
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "q2", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		{Text: "q3", Options: []string{"a", "b", "c"}, CorrectAnswer: "c"},
	}

	tests := map[string]struct {
		answers   []string
		wantScore int
	}{
		"correct, correct, wrong": {
			answers:   []string{"a", "b", "a"},
			wantScore: 2,
		},
		"all wrong": {
			answers:   []string{"b", "a", "a"},
			wantScore: 0,
		},
		"all correct": {
			answers:   []string{"a", "b", "c"},
			wantScore: 3,
		},
		"options outside the question count as wrong": {
			answers:   []string{"z", "", "c"},
			wantScore: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := quiz.NewSession(questions)
			require.Equal(t, quiz.StateInProgress, s.State())

			var st quiz.Status
			for i, a := range tt.answers {
				var err error
				st, err = s.SubmitAnswer(a)
				require.NoError(t, err)
				require.Equal(t, i+1, st.Index)
				require.Equal(t, a == questions[i].CorrectAnswer, st.Correct)
				require.Equal(t, questions[i].CorrectAnswer, st.CorrectAnswer)

				if i < len(tt.answers)-1 {
					require.False(t, st.Complete())
				}
			}

			require.True(t, st.Complete())
			require.Equal(t, tt.wantScore, st.Score)
			require.Equal(t, quiz.StateComplete, s.State())
			require.Equal(t, len(questions), s.Index())
		})
	}
}

func TestSession_CompleteIsTerminal(t *testing.T) {
	s := quiz.NewSession([]domain.Question{
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
	})

	st, err := s.SubmitAnswer("a")
	require.NoError(t, err)
	require.True(t, st.Complete())

	_, err = s.SubmitAnswer("a")
	require.True(t, errors.HasCode(err, errors.CodeFailedPrecondition), "got %v", err)
	assert.Equal(t, 1, s.Score())
	assert.Equal(t, 1, s.Index())

	_, ok := s.Current()
	assert.False(t, ok)
}
