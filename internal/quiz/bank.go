package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
)

// Bank is an immutable pool of questions that sessions draw from.
type Bank struct {
	questions []domain.Question
}

// NewBank validates every question and returns a bank holding a private copy of them.
func NewBank(questions []domain.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("question bank is empty"))
	}

	qs := make([]domain.Question, 0, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("question %d: %v", i, err),
			)
		}

		qs = append(qs, domain.Question{
			Text:          q.Text,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	return &Bank{questions: qs}, nil
}

func validateQuestion(q domain.Question) error {
	if q.Text == "" {
		return fmt.Errorf("missing text")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(q.Options))
	}
	if !q.HasOption(q.CorrectAnswer) {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Questions returns a copy of the bank's questions.
func (b *Bank) Questions() []domain.Question {
	return append([]domain.Question(nil), b.questions...)
}

type bankFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadBankFile reads a YAML question bank:
//
//	questions:
//	  - text: "¿Cuántos continentes hay en la Tierra?"
//	    options: ["5", "6", "7"]
//	    correctAnswer: "7"
func LoadBankFile(path string) (*Bank, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}

	var f bankFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode bank file %s: %w", path, err)
	}

	return NewBank(f.Questions)
}
