package app

import (
	"fmt"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
)

// Session is the trivia state machine for one play-through of a question bank.
// It is not safe for concurrent use; Game serializes all access to it.
//
// Every time a new question becomes current the generation counter moves
// forward, so a deferred timeout carrying an older generation is ignored.
type Session struct {
	bank     domain.QuestionBank
	perLevel int
	rnd      Shuffler
	total    int

	phase       domain.Phase
	levelIdx    int
	questionIdx int
	questions   []domain.Question
	score       int
	selected    string
	hasSelected bool
	timedOut    bool
	generation  uint64
}

// NewSession starts a session at the first question of the first level.
func NewSession(bank domain.QuestionBank, perLevel int, rnd Shuffler) (*Session, error) {
	if err := ValidateBank(bank); err != nil {
		return nil, err
	}
	s := &Session{
		bank:     bank,
		perLevel: perLevel,
		rnd:      rnd,
		total:    questionsToPlay(bank, perLevel),
	}
	s.loadLevel(0)
	return s, nil
}

func (s *Session) loadLevel(idx int) {
	s.levelIdx = idx
	s.questionIdx = 0
	s.questions = drawLevel(s.bank.Levels[idx], s.perLevel, s.rnd)
	s.clearAnswer()
	s.generation++

	if len(s.questions) == 0 {
		logger.Warningf("level %d (%s): %v", idx+1, s.bank.Levels[idx].Name, domain.ErrEmptyLevel)
		s.phase = domain.PhaseNoQuestions
		return
	}
	s.phase = domain.PhaseAwaitingAnswer
}

func (s *Session) clearAnswer() {
	s.selected = ""
	s.hasSelected = false
	s.timedOut = false
}

// SelectOption records the pending choice for the current question.
func (s *Session) SelectOption(option string) error {
	if s.phase != domain.PhaseAwaitingAnswer {
		return fmt.Errorf("%w: select while %s", domain.ErrInvalidTransition, s.phase)
	}
	q := s.questions[s.questionIdx]
	for _, candidate := range q.Options {
		if candidate == option {
			s.selected = option
			s.hasSelected = true
			return nil
		}
	}
	return domain.ErrOptionNotFound
}

// SubmitAnswer reveals the current question's result. Without timedOut a
// selection is required. A timed out answer never scores, even when an
// option was selected.
func (s *Session) SubmitAnswer(timedOut bool) (domain.AnswerReveal, error) {
	if s.phase != domain.PhaseAwaitingAnswer {
		return domain.AnswerReveal{}, fmt.Errorf("%w: submit while %s", domain.ErrInvalidTransition, s.phase)
	}
	if !timedOut && !s.hasSelected {
		return domain.AnswerReveal{}, domain.ErrNoSelection
	}

	q := s.questions[s.questionIdx]
	correct := !timedOut && s.selected == q.CorrectOption
	if correct {
		s.score++
	}
	s.timedOut = timedOut
	s.phase = domain.PhaseAnswerShown

	return domain.AnswerReveal{
		Correct:  correct,
		TimedOut: timedOut,
		Selected: s.selected,
		Score:    s.score,
	}, nil
}

// Expire applies a timeout armed for the given generation. It reports false
// when the timer is stale or the question was already answered.
func (s *Session) Expire(generation uint64) (domain.AnswerReveal, bool) {
	if generation != s.generation || s.phase != domain.PhaseAwaitingAnswer {
		return domain.AnswerReveal{}, false
	}
	reveal, err := s.SubmitAnswer(true)
	if err != nil {
		return domain.AnswerReveal{}, false
	}
	return reveal, true
}

// Advance moves past a revealed answer to the next question, the next level,
// or the finished state.
func (s *Session) Advance() error {
	if s.phase != domain.PhaseAnswerShown {
		return fmt.Errorf("%w: advance while %s", domain.ErrInvalidTransition, s.phase)
	}
	s.clearAnswer()

	switch {
	case s.questionIdx < len(s.questions)-1:
		s.questionIdx++
		s.generation++
		s.phase = domain.PhaseAwaitingAnswer
	case s.levelIdx < len(s.bank.Levels)-1:
		s.loadLevel(s.levelIdx + 1)
	default:
		s.generation++
		s.phase = domain.PhaseFinished
	}
	return nil
}

// EndEarly finishes a session that is stuck on a level without questions,
// keeping the score earned so far.
func (s *Session) EndEarly() error {
	if s.phase != domain.PhaseNoQuestions {
		return fmt.Errorf("%w: end while %s", domain.ErrInvalidTransition, s.phase)
	}
	s.generation++
	s.phase = domain.PhaseFinished
	return nil
}

// Restart resets a finished session to the first question with a zero score.
func (s *Session) Restart() error {
	if s.phase != domain.PhaseFinished {
		return fmt.Errorf("%w: restart while %s", domain.ErrInvalidTransition, s.phase)
	}
	s.score = 0
	s.loadLevel(0)
	return nil
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase { return s.phase }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Total is the number of questions a complete run presents.
func (s *Session) Total() int { return s.total }

// Generation identifies the current question for timer arming.
func (s *Session) Generation() uint64 { return s.generation }

// Position returns the level and question pointers.
func (s *Session) Position() (level, question int) { return s.levelIdx, s.questionIdx }

// Current returns the question being shown, if any.
func (s *Session) Current() (domain.Question, bool) {
	if s.phase != domain.PhaseAwaitingAnswer && s.phase != domain.PhaseAnswerShown {
		return domain.Question{}, false
	}
	return s.questions[s.questionIdx], true
}

// Snapshot renders the session. The correct option is only marked once the
// answer has been revealed.
func (s *Session) Snapshot() domain.GameSnapshot {
	snap := domain.GameSnapshot{
		Phase:          s.phase,
		LevelIndex:     s.levelIdx,
		LevelCount:     len(s.bank.Levels),
		QuestionIndex:  s.questionIdx,
		QuestionCount:  len(s.questions),
		Selected:       s.selected,
		TimedOut:       s.timedOut,
		Score:          s.score,
		TotalQuestions: s.total,
	}
	if s.phase != domain.PhaseFinished {
		snap.LevelName = s.bank.Levels[s.levelIdx].Name
	}
	if q, ok := s.Current(); ok {
		view := s.questionView(q)
		snap.Question = &view
	}
	return snap
}

func (s *Session) questionView(q domain.Question) domain.QuestionView {
	view := domain.QuestionView{Text: q.Text, Options: make([]domain.OptionView, 0, len(q.Options))}
	for _, option := range q.Options {
		view.Options = append(view.Options, domain.OptionView{Text: option, Mark: s.markFor(q, option)})
	}
	return view
}

func (s *Session) markFor(q domain.Question, option string) domain.OptionMark {
	picked := s.hasSelected && s.selected == option
	if s.phase != domain.PhaseAnswerShown {
		if picked {
			return domain.MarkSelected
		}
		return domain.MarkNeutral
	}
	switch {
	case option == q.CorrectOption:
		return domain.MarkCorrect
	case picked:
		return domain.MarkIncorrect
	default:
		return domain.MarkNeutral
	}
}
