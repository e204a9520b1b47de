package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-trivia-service/internal/domain"
)

func TestGameTimeoutRevealsWithoutScoring(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)

	if _, err := f.games.Start(ctx, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.games.Choose(ctx, userID, "yes"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if f.scheduler.count() != 1 {
		t.Fatalf("expected one armed timer, got %d", f.scheduler.count())
	}
	f.scheduler.fire(0)

	snap, err := f.games.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Phase != domain.PhaseAnswerShown || !snap.TimedOut || snap.Score != 0 {
		t.Fatalf("expected timed out reveal without score, got %+v", snap)
	}
	if _, err := f.games.Submit(ctx, userID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("submit after timeout: expected invalid transition, got %v", err)
	}
}

func TestGameIgnoresStaleTimer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)

	if _, err := f.games.Start(ctx, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = f.games.Choose(ctx, userID, "yes")
	if _, err := f.games.Submit(ctx, userID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !f.scheduler.stopped(0) {
		t.Fatalf("submit must cancel the pending timer")
	}
	if _, err := f.games.Advance(ctx, userID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// the first question's timer fires anyway
	f.scheduler.fire(0)

	snap, _ := f.games.Snapshot(ctx, userID)
	if snap.Phase != domain.PhaseAwaitingAnswer || snap.QuestionIndex != 1 || snap.Score != 1 {
		t.Fatalf("stale timer changed the game: %+v", snap)
	}
}

func TestGameEmitsEventsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)

	if _, err := f.games.Start(ctx, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	events, cancel, err := f.games.Subscribe(ctx, userID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	_, _ = f.games.Choose(ctx, userID, "yes")
	_, _ = f.games.Submit(ctx, userID)
	_, _ = f.games.Advance(ctx, userID)

	want := []string{domain.EventAnswerRevealed, domain.EventScoreChanged, domain.EventQuestionShown}
	for _, typ := range want {
		select {
		case event := <-events:
			if event.Type != typ {
				t.Fatalf("expected %s, got %s", typ, event.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", typ)
		}
	}
}

func TestGameFinishOffersGiftAndClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)

	if _, err := f.games.Start(ctx, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := f.play(t, userID, 3)
	if snap.Outcome == nil || snap.Outcome.WonGame || !snap.Outcome.WonCourseGift {
		t.Fatalf("expected gift without win, got %+v", snap.Outcome)
	}
	if snap.Decision != domain.DecisionClaimAvailable || snap.GiftCourse == nil {
		t.Fatalf("expected claim available, got %+v", snap)
	}
	if _, err := f.games.Restart(ctx, userID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("restart with a gift on offer: expected invalid transition, got %v", err)
	}

	result, err := f.games.Claim(ctx, userID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !result.Granted || !result.Consumed {
		t.Fatalf("expected granted claim, got %+v", result)
	}
	result, err = f.games.Claim(ctx, userID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if result.Granted || result.Decision != domain.DecisionAlreadyClaimed {
		t.Fatalf("expected already claimed, got %+v", result)
	}

	profile, _ := f.profiles.Get(ctx, userID)
	if !profile.HasClaimedAnyGift || !profile.Owns("go-basics") || len(profile.PurchasedCourseIDs) != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	// the next game sees the consumed flag
	if _, err := f.games.Start(ctx, userID); err != nil {
		t.Fatalf("start again: %v", err)
	}
	snap = f.play(t, userID, 9)
	if snap.Decision != domain.DecisionAlreadyClaimed || snap.GiftCourse == nil {
		t.Fatalf("expected already claimed on replay, got %+v", snap)
	}
}

func TestGameAlreadyOwnedGift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)
	if _, err := f.profiles.Purchase(ctx, userID, "go-basics"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	_, _ = f.games.Start(ctx, userID)
	snap := f.play(t, userID, 9)
	if snap.Decision != domain.DecisionAlreadyOwned {
		t.Fatalf("expected already owned, got %s", snap.Decision)
	}
	result, err := f.games.Claim(ctx, userID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Granted || !result.Consumed {
		t.Fatalf("expected consumed without grant, got %+v", result)
	}
}

func TestGameRestartAfterNoGift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())
	userID := f.login(t)

	_, _ = f.games.Start(ctx, userID)
	snap := f.play(t, userID, 2)
	if snap.Decision != domain.DecisionNoGift || snap.Outcome.FinalScore != 2 {
		t.Fatalf("expected no gift with score 2, got %+v", snap)
	}

	snap, err := f.games.Restart(ctx, userID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if snap.Phase != domain.PhaseAwaitingAnswer || snap.Score != 0 || snap.LevelIndex != 0 || snap.Outcome != nil {
		t.Fatalf("restart did not reset the game: %+v", snap)
	}
}

func TestGameEndEarlyOnEmptyLevel(t *testing.T) {
	ctx := context.Background()
	bank := domain.QuestionBank{Levels: []domain.Level{level("Level 1", 3), {Name: "Level 2"}}}
	f := newFixture(t, bank)
	userID := f.login(t)

	_, _ = f.games.Start(ctx, userID)
	snap := f.play(t, userID, 3)
	if snap.Phase != domain.PhaseNoQuestions {
		t.Fatalf("expected no questions phase, got %s", snap.Phase)
	}
	snap, err := f.games.EndEarly(ctx, userID)
	if err != nil {
		t.Fatalf("end early: %v", err)
	}
	if snap.Phase != domain.PhaseFinished || snap.Outcome == nil || snap.Outcome.FinalScore != 3 {
		t.Fatalf("expected finished with score 3, got %+v", snap)
	}
	if !snap.Outcome.WonGame || snap.Decision != domain.DecisionClaimAvailable {
		t.Fatalf("expected win and gift offer, got %+v", snap)
	}
}

func TestGameServiceLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nineQuestionBank())

	if _, err := f.games.Start(ctx, "nobody"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
	userID := f.login(t)
	if _, err := f.games.Snapshot(ctx, userID); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}

	_, _ = f.games.Start(ctx, userID)
	first, err := f.games.Game(userID)
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	_, _ = f.games.Start(ctx, userID)
	if _, err := first.Snapshot(ctx); !errors.Is(err, domain.ErrGameClosed) {
		t.Fatalf("replaced game must be closed, got %v", err)
	}

	f.games.Leave(ctx, userID, first.ID())
	if _, err := f.games.Snapshot(ctx, userID); err != nil {
		t.Fatalf("leaving a replaced game must keep the current one: %v", err)
	}
	f.games.Close(ctx, userID)
	if _, err := f.games.Snapshot(ctx, userID); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found after close, got %v", err)
	}
}
