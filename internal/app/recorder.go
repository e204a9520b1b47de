package app

import "course-trivia-service/internal/domain"

// Recorder receives counters about games and claims (Prometheus in production).
type Recorder interface {
	GameStarted()
	AnswerRevealed(reveal domain.AnswerReveal)
	SessionFinished(outcome domain.Outcome, decision domain.ClaimDecision)
	GiftClaimed(result domain.ClaimResult)
}

type nopRecorder struct{}

func (nopRecorder) GameStarted()                                         {}
func (nopRecorder) AnswerRevealed(domain.AnswerReveal)                   {}
func (nopRecorder) SessionFinished(domain.Outcome, domain.ClaimDecision) {}
func (nopRecorder) GiftClaimed(domain.ClaimResult)                       {}
