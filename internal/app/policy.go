package app

import "course-trivia-service/internal/domain"

const (
	// DefaultWinPercent is the share of correct answers needed to win the game.
	DefaultWinPercent = 70
	// DefaultGiftThreshold is the number of correct answers that earns the gift course.
	// It is not required to be below the win cutoff; the two outcomes are independent.
	DefaultGiftThreshold = 3
)

// Policy holds the scoring thresholds.
type Policy struct {
	WinPercent    int
	GiftThreshold int
}

// DefaultPolicy returns the 70% / 3-correct thresholds.
func DefaultPolicy() Policy {
	return Policy{WinPercent: DefaultWinPercent, GiftThreshold: DefaultGiftThreshold}
}

// WinCutoff is ceil(total * WinPercent / 100) computed in integers.
func (p Policy) WinCutoff(total int) int {
	if total <= 0 {
		return 0
	}
	return (total*p.WinPercent + 99) / 100
}

// Evaluate computes the outcome of a finished session.
func (p Policy) Evaluate(score, total int) domain.Outcome {
	return domain.Outcome{
		FinalScore:     score,
		TotalQuestions: total,
		WonGame:        score >= p.WinCutoff(total),
		WonCourseGift:  score >= p.GiftThreshold,
	}
}
