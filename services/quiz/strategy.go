package quiz

import (
	"context"
	"fmt"

	"quizflow-backend/services/quiz/extract"

	"github.com/mazen160/go-random"
)

// AnswerStrategy produces an answer for a single question. The value
// returned must be consistent with the question's type.
type AnswerStrategy interface {
	Answer(ctx context.Context, question extract.Question) (any, error)
}

// RandomGuessStrategy answers every question with a type-appropriate
// random value. Useful as a baseline and for exercising the pipeline
// without a real solver.
type RandomGuessStrategy struct{}

func (RandomGuessStrategy) Answer(ctx context.Context, question extract.Question) (any, error) {
	switch question.Type {
	case extract.QuestionBoolean:
		n, err := random.IntRange(0, 2)
		if err != nil {
			return nil, err
		}
		return n == 1, nil
	case extract.QuestionNumber:
		return random.IntRange(1, 101)
	case extract.QuestionMultipleChoice:
		if len(question.Options) == 0 {
			return "A", nil
		}
		idx, err := random.IntRange(0, len(question.Options))
		if err != nil {
			return nil, err
		}
		return question.Options[idx], nil
	default:
		return fmt.Sprintf("Sample answer for %s", question.ID), nil
	}
}

// PlaceholderStrategy answers every question with a fixed marker.
type PlaceholderStrategy struct{}

func (PlaceholderStrategy) Answer(ctx context.Context, question extract.Question) (any, error) {
	return fmt.Sprintf("Sample answer for %s", question.ID), nil
}
