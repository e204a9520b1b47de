package app_test

import (
	"errors"
	"math/rand"
	"testing"

	"course-trivia-service/internal/app"
	"course-trivia-service/internal/domain"
)

func newSession(t *testing.T, bank domain.QuestionBank) *app.Session {
	t.Helper()
	s, err := app.NewSession(bank, 3, noShuffle{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func answer(t *testing.T, s *app.Session, option string) domain.AnswerReveal {
	t.Helper()
	if err := s.SelectOption(option); err != nil {
		t.Fatalf("select: %v", err)
	}
	reveal, err := s.SubmitAnswer(false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return reveal
}

func TestSessionScoresCorrectAnswersOnly(t *testing.T) {
	s := newSession(t, nineQuestionBank())
	if s.Total() != 9 {
		t.Fatalf("expected 9 questions, got %d", s.Total())
	}

	for i := 0; i < 9; i++ {
		option := "yes"
		if i%2 == 1 {
			option = "no"
		}
		reveal := answer(t, s, option)
		if reveal.Correct != (option == "yes") {
			t.Fatalf("question %d: unexpected reveal %+v", i, reveal)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if s.Phase() != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", s.Phase())
	}
	if s.Score() != 5 {
		t.Fatalf("expected score 5, got %d", s.Score())
	}
}

func TestSessionTimeoutNeverScores(t *testing.T) {
	s := newSession(t, nineQuestionBank())
	if err := s.SelectOption("yes"); err != nil {
		t.Fatalf("select: %v", err)
	}
	reveal, ok := s.Expire(s.Generation())
	if !ok {
		t.Fatalf("expected timeout to apply")
	}
	if reveal.Correct || !reveal.TimedOut || s.Score() != 0 {
		t.Fatalf("timed out answer scored: %+v score=%d", reveal, s.Score())
	}
	if snap := s.Snapshot(); !snap.TimedOut || snap.Phase != domain.PhaseAnswerShown {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSessionRejectsInvalidTransitions(t *testing.T) {
	s := newSession(t, nineQuestionBank())

	if err := s.Advance(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("advance while awaiting: expected invalid transition, got %v", err)
	}
	if _, err := s.SubmitAnswer(false); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("submit without selection: expected no selection, got %v", err)
	}
	if err := s.SelectOption("maybe"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
	if err := s.Restart(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("restart mid-game: expected invalid transition, got %v", err)
	}
	if err := s.EndEarly(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("end early with questions: expected invalid transition, got %v", err)
	}
	if s.Phase() != domain.PhaseAwaitingAnswer || s.Score() != 0 {
		t.Fatalf("rejected actions changed state: %s %d", s.Phase(), s.Score())
	}

	answer(t, s, "yes")
	if err := s.SelectOption("no"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("select after reveal: expected invalid transition, got %v", err)
	}
	if _, err := s.SubmitAnswer(false); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("double submit: expected invalid transition, got %v", err)
	}
	if s.Score() != 1 {
		t.Fatalf("double submit must not score twice, got %d", s.Score())
	}
}

func TestSessionIgnoresStaleTimer(t *testing.T) {
	s := newSession(t, nineQuestionBank())
	first := s.Generation()

	answer(t, s, "yes")
	if _, ok := s.Expire(first); ok {
		t.Fatalf("timer for an answered question must be ignored")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, ok := s.Expire(first); ok {
		t.Fatalf("timer from the previous question must be ignored")
	}
	if s.Phase() != domain.PhaseAwaitingAnswer || s.Score() != 1 {
		t.Fatalf("stale timer changed state: %s score=%d", s.Phase(), s.Score())
	}
	if _, q := s.Position(); q != 1 {
		t.Fatalf("expected second question, got %d", q)
	}
}

func TestSessionEmptyLevel(t *testing.T) {
	bank := domain.QuestionBank{Levels: []domain.Level{level("Level 1", 1), {Name: "Level 2"}, level("Level 3", 1)}}
	s := newSession(t, bank)
	if s.Total() != 2 {
		t.Fatalf("expected 2 playable questions, got %d", s.Total())
	}

	answer(t, s, "yes")
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s.Phase() != domain.PhaseNoQuestions {
		t.Fatalf("expected no questions phase, got %s", s.Phase())
	}
	if err := s.SelectOption("yes"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on empty level, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("empty level must not advance, got %v", err)
	}

	if err := s.EndEarly(); err != nil {
		t.Fatalf("end early: %v", err)
	}
	if s.Phase() != domain.PhaseFinished || s.Score() != 1 {
		t.Fatalf("expected finished with score 1, got %s %d", s.Phase(), s.Score())
	}
}

func TestSessionRestartResets(t *testing.T) {
	s := newSession(t, domain.QuestionBank{Levels: []domain.Level{level("Level 1", 2)}})
	answer(t, s, "yes")
	_ = s.Advance()
	answer(t, s, "yes")
	_ = s.Advance()
	if s.Phase() != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", s.Phase())
	}

	before := s.Generation()
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	lvl, q := s.Position()
	if s.Score() != 0 || lvl != 0 || q != 0 || s.Phase() != domain.PhaseAwaitingAnswer {
		t.Fatalf("restart did not reset: score=%d pos=%d/%d phase=%s", s.Score(), lvl, q, s.Phase())
	}
	if s.Generation() == before {
		t.Fatalf("restart must invalidate armed timers")
	}
}

func TestSessionMarks(t *testing.T) {
	s := newSession(t, nineQuestionBank())
	if err := s.SelectOption("no"); err != nil {
		t.Fatalf("select: %v", err)
	}
	marks := optionMarks(s.Snapshot())
	if marks["no"] != domain.MarkSelected || marks["yes"] != domain.MarkNeutral {
		t.Fatalf("correct option leaked before reveal: %v", marks)
	}

	if _, err := s.SubmitAnswer(false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	marks = optionMarks(s.Snapshot())
	if marks["no"] != domain.MarkIncorrect || marks["yes"] != domain.MarkCorrect {
		t.Fatalf("unexpected marks after reveal: %v", marks)
	}
}

func TestSessionDrawsQuestionsPerLevel(t *testing.T) {
	bank := domain.QuestionBank{Levels: []domain.Level{level("Big", 5), level("Small", 2)}}
	for i := range bank.Levels[0].Questions {
		bank.Levels[0].Questions[i].Text = string(rune('a' + i))
	}
	s, err := app.NewSession(bank, 3, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.Total() != 5 {
		t.Fatalf("expected 3+2 questions, got %d", s.Total())
	}
	if snap := s.Snapshot(); snap.QuestionCount != 3 {
		t.Fatalf("expected 3 drawn questions, got %d", snap.QuestionCount)
	}
	for i, q := range bank.Levels[0].Questions {
		if q.Text != string(rune('a'+i)) {
			t.Fatalf("drawing reordered the bank")
		}
	}
}

func TestNewSessionEmptyBank(t *testing.T) {
	if _, err := app.NewSession(domain.QuestionBank{}, 3, noShuffle{}); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected empty bank error, got %v", err)
	}
}

func optionMarks(snap domain.GameSnapshot) map[string]domain.OptionMark {
	marks := map[string]domain.OptionMark{}
	if snap.Question == nil {
		return marks
	}
	for _, o := range snap.Question.Options {
		marks[o.Text] = o.Mark
	}
	return marks
}
