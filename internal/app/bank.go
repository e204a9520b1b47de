package app

import (
	"fmt"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
)

// Shuffler is the random source used to order questions. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// drawLevel returns up to perLevel questions of the level in shuffled order.
// perLevel <= 0 draws every question. The level's own slice is never reordered.
func drawLevel(level domain.Level, perLevel int, rnd Shuffler) []domain.Question {
	drawn := make([]domain.Question, len(level.Questions))
	copy(drawn, level.Questions)
	if rnd != nil {
		rnd.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
	}

	if perLevel <= 0 {
		return drawn
	}
	if len(drawn) < perLevel {
		if len(drawn) > 0 {
			logger.Warningf("level %q has %d questions, wanted %d; using all available", level.Name, len(drawn), perLevel)
		}
		return drawn
	}
	return drawn[:perLevel]
}

// questionsToPlay is the number of questions a full run over the bank presents.
func questionsToPlay(bank domain.QuestionBank, perLevel int) int {
	total := 0
	for _, level := range bank.Levels {
		n := len(level.Questions)
		if perLevel > 0 && n > perLevel {
			n = perLevel
		}
		total += n
	}
	return total
}

// ValidateBank rejects a bank with no levels or with a malformed question:
// the wrong number of options, a repeated option, or a correct option that
// is not among the choices. Empty levels are allowed.
func ValidateBank(bank domain.QuestionBank) error {
	if len(bank.Levels) == 0 {
		return domain.ErrEmptyBank
	}
	for li, level := range bank.Levels {
		for qi, q := range level.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("%w: level %d (%s) question %d: %v", domain.ErrInvalidBank, li+1, level.Name, qi+1, err)
			}
		}
	}
	return nil
}

func validateQuestion(q domain.Question) error {
	if len(q.Options) != domain.OptionsPerQuestion {
		return fmt.Errorf("has %d options, want %d", len(q.Options), domain.OptionsPerQuestion)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, option := range q.Options {
		if _, dup := seen[option]; dup {
			return fmt.Errorf("repeats option %q", option)
		}
		seen[option] = struct{}{}
	}
	if _, ok := seen[q.CorrectOption]; !ok {
		return fmt.Errorf("correct option %q is not one of its options", q.CorrectOption)
	}
	return nil
}
