package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
)

type commandKind int

const (
	cmdSnapshot commandKind = iota
	cmdChoose
	cmdSubmit
	cmdAdvance
	cmdRestart
	cmdEndEarly
	cmdClaim
	cmdTimeout
)

type command struct {
	kind       commandKind
	ctx        context.Context
	option     string
	generation uint64
	reply      chan reply
}

type reply struct {
	snapshot domain.GameSnapshot
	claim    domain.ClaimResult
	err      error
}

// Game owns one Session and processes commands for it one at a time, in
// arrival order, on its own goroutine. User actions and timer expiry both
// enter through the same inbox.
type Game struct {
	id          string
	userID      string
	session     *Session
	policy      Policy
	coordinator *GiftCoordinator
	giftCourse  *domain.Course
	giftState   domain.UserGiftState
	scheduler   Scheduler
	window      time.Duration
	recorder    Recorder
	now         func() time.Time

	inbox     chan command
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// owned by the loop goroutine
	timer    Timer
	outcome  *domain.Outcome
	decision domain.ClaimDecision
	claim    *domain.ClaimResult

	mu          sync.Mutex
	subscribers map[chan domain.Event]struct{}
	subsClosed  bool
}

// GameParams carries everything a game needs at start. The gift state and gift
// course are snapshots; the game never re-reads them.
type GameParams struct {
	ID           string
	UserID       string
	Session      *Session
	Policy       Policy
	Coordinator  *GiftCoordinator
	GiftCourse   *domain.Course
	GiftState    domain.UserGiftState
	Scheduler    Scheduler
	AnswerWindow time.Duration
	Recorder     Recorder
	Now          func() time.Time
}

// NewGame builds a game; call Start to begin processing.
func NewGame(p GameParams) *Game {
	if p.Scheduler == nil {
		p.Scheduler = WallClockScheduler{}
	}
	if p.Recorder == nil {
		p.Recorder = nopRecorder{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Game{
		id:          p.ID,
		userID:      p.UserID,
		session:     p.Session,
		policy:      p.Policy,
		coordinator: p.Coordinator,
		giftCourse:  p.GiftCourse,
		giftState:   p.GiftState,
		scheduler:   p.Scheduler,
		window:      p.AnswerWindow,
		recorder:    p.Recorder,
		now:         p.Now,
		inbox:       make(chan command),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// Start launches the processing loop.
func (g *Game) Start() {
	go g.run()
}

// Close stops the loop, cancels any pending timer and closes subscriber
// channels. It must only be called on a started game.
func (g *Game) Close() {
	g.closeOnce.Do(func() { close(g.done) })
	<-g.stopped
}

func (g *Game) run() {
	defer close(g.stopped)
	defer g.shutdown()

	g.enterCurrent()
	for {
		select {
		case <-g.done:
			return
		case cmd := <-g.inbox:
			r := g.handle(cmd)
			if cmd.reply != nil {
				cmd.reply <- r
			}
		}
	}
}

func (g *Game) shutdown() {
	g.disarm()
	g.mu.Lock()
	for ch := range g.subscribers {
		close(ch)
	}
	g.subscribers = map[chan domain.Event]struct{}{}
	g.subsClosed = true
	g.mu.Unlock()
}

// Snapshot returns the current view of the game.
func (g *Game) Snapshot(ctx context.Context) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdSnapshot})
	return r.snapshot, err
}

// Choose records the user's pending option.
func (g *Game) Choose(ctx context.Context, option string) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdChoose, option: option})
	return r.snapshot, err
}

// Submit reveals the answer to the current question.
func (g *Game) Submit(ctx context.Context) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdSubmit})
	return r.snapshot, err
}

// Advance moves past a revealed answer.
func (g *Game) Advance(ctx context.Context) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdAdvance})
	return r.snapshot, err
}

// Restart replays the bank from scratch after a finish that earned no gift.
func (g *Game) Restart(ctx context.Context) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdRestart})
	return r.snapshot, err
}

// EndEarly finishes a game stuck on a level with no questions.
func (g *Game) EndEarly(ctx context.Context) (domain.GameSnapshot, error) {
	r, err := g.send(ctx, command{kind: cmdEndEarly})
	return r.snapshot, err
}

// Claim confirms the gift claim offered by a finished game.
func (g *Game) Claim(ctx context.Context) (domain.ClaimResult, error) {
	r, err := g.send(ctx, command{kind: cmdClaim})
	return r.claim, err
}

func (g *Game) send(ctx context.Context, cmd command) (reply, error) {
	cmd.ctx = ctx
	cmd.reply = make(chan reply, 1)
	select {
	case g.inbox <- cmd:
	case <-g.done:
		return reply{}, domain.ErrGameClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r, r.err
	case <-g.done:
		return reply{}, domain.ErrGameClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (g *Game) handle(cmd command) reply {
	var (
		r   reply
		err error
	)
	switch cmd.kind {
	case cmdSnapshot:
	case cmdChoose:
		err = g.session.SelectOption(cmd.option)
	case cmdSubmit:
		var reveal domain.AnswerReveal
		reveal, err = g.session.SubmitAnswer(false)
		if err == nil {
			g.disarm()
			g.revealed(reveal)
		}
	case cmdTimeout:
		reveal, ok := g.session.Expire(cmd.generation)
		if !ok {
			logger.Infof("game %s: ignoring stale timer for generation %d", g.id, cmd.generation)
			break
		}
		g.timer = nil
		g.revealed(reveal)
	case cmdAdvance:
		if err = g.session.Advance(); err == nil {
			g.enterCurrent()
		}
	case cmdEndEarly:
		if err = g.session.EndEarly(); err == nil {
			g.finish()
		}
	case cmdRestart:
		err = g.restart()
	case cmdClaim:
		r.claim, err = g.confirmClaim(cmd.ctx)
	default:
		err = fmt.Errorf("unknown command %d", cmd.kind)
	}
	r.err = err
	r.snapshot = g.snapshot()
	return r
}

func (g *Game) restart() error {
	if g.outcome == nil || g.decision != domain.DecisionNoGift {
		return fmt.Errorf("%w: restart is only offered when no gift was earned", domain.ErrInvalidTransition)
	}
	if err := g.session.Restart(); err != nil {
		return err
	}
	g.outcome = nil
	g.decision = ""
	g.claim = nil
	g.emit(domain.EventScoreChanged, domain.ScoreChanged{Score: 0})
	g.enterCurrent()
	return nil
}

func (g *Game) confirmClaim(ctx context.Context) (domain.ClaimResult, error) {
	if g.outcome == nil {
		return domain.ClaimResult{}, fmt.Errorf("%w: claim before the game finished", domain.ErrInvalidTransition)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	giftID := ""
	if g.giftCourse != nil {
		giftID = g.giftCourse.ID
	}
	result, err := g.coordinator.Claim(ctx, g.userID, giftID, g.decision)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if result.Consumed {
		// keep the local snapshot monotonic so a second confirmation is refused
		g.giftState.HasClaimedAnyGift = true
		if result.Granted {
			owned := make(map[string]struct{}, len(g.giftState.PurchasedCourseIDs)+1)
			for id := range g.giftState.PurchasedCourseIDs {
				owned[id] = struct{}{}
			}
			owned[giftID] = struct{}{}
			g.giftState.PurchasedCourseIDs = owned
		}
		g.decision = domain.DecisionAlreadyClaimed
	} else if result.Decision == domain.DecisionAlreadyClaimed {
		g.giftState.HasClaimedAnyGift = true
		g.decision = domain.DecisionAlreadyClaimed
	}
	g.claim = &result
	g.emit(domain.EventClaimResult, result)
	return result, nil
}

// enterCurrent reacts to the session landing in a new phase.
func (g *Game) enterCurrent() {
	switch g.session.Phase() {
	case domain.PhaseAwaitingAnswer:
		g.arm()
		g.emit(domain.EventQuestionShown, g.snapshot())
	case domain.PhaseNoQuestions:
		g.disarm()
		g.emit(domain.EventLevelEmpty, g.snapshot())
	case domain.PhaseFinished:
		g.disarm()
		g.finish()
	}
}

func (g *Game) revealed(reveal domain.AnswerReveal) {
	g.recorder.AnswerRevealed(reveal)
	g.emit(domain.EventAnswerRevealed, reveal)
	if reveal.Correct {
		g.emit(domain.EventScoreChanged, domain.ScoreChanged{Score: reveal.Score})
	}
}

func (g *Game) finish() {
	outcome := g.policy.Evaluate(g.session.Score(), g.session.Total())
	giftID := ""
	if g.giftCourse != nil {
		giftID = g.giftCourse.ID
	}
	g.outcome = &outcome
	g.decision = g.coordinator.Decide(outcome, g.giftState, giftID)
	g.recorder.SessionFinished(outcome, g.decision)
	g.emit(domain.EventSessionFinished, domain.SessionFinished{Outcome: outcome, Decision: g.decision})
}

func (g *Game) arm() {
	g.disarm()
	if g.window <= 0 {
		return
	}
	generation := g.session.Generation()
	g.timer = g.scheduler.AfterFunc(g.window, func() {
		select {
		case g.inbox <- command{kind: cmdTimeout, generation: generation}:
		case <-g.done:
		}
	})
}

func (g *Game) disarm() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Game) snapshot() domain.GameSnapshot {
	snap := g.session.Snapshot()
	snap.GameID = g.id
	if g.outcome != nil {
		outcome := *g.outcome
		snap.Outcome = &outcome
		snap.Decision = g.decision
		if g.giftCourse != nil && outcome.WonCourseGift {
			course := *g.giftCourse
			snap.GiftCourse = &course
		}
	}
	if g.claim != nil {
		claim := *g.claim
		snap.Claim = &claim
	}
	return snap
}

// Subscribe returns a channel of game events. The caller must invoke the
// returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	g.mu.Lock()
	if g.subsClosed {
		g.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	g.subscribers[ch] = struct{}{}
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) emit(eventType string, payload any) {
	event := domain.Event{Type: eventType, GameID: g.id, Payload: payload, At: g.now()}

	g.mu.Lock()
	defer g.mu.Unlock()
	for ch := range g.subscribers {
		select {
		case ch <- event:
		default:
			// drop the oldest event
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
