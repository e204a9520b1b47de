package app

import (
	"context"
	"math/rand"
	"time"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
	"github.com/google/uuid"
)

// GameRepository tracks the active game per user (in-memory, Redis-marked, etc).
type GameRepository interface {
	// Put stores the game and returns the one it replaced, if any.
	Put(userID string, game *Game) (*Game, bool)
	Get(userID string) (*Game, bool)
	// Delete removes the entry only while it still points at game.
	Delete(userID string, game *Game)
}

// CatalogRepository loads the course catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// GameOptions configures game creation. Zero values fall back to defaults.
type GameOptions struct {
	AnswerWindow      time.Duration
	QuestionsPerLevel int
	Policy            Policy
	GiftCourseID      string

	Scheduler Scheduler
	NewRand   func() Shuffler
	Recorder  Recorder
	Now       func() time.Time
}

// DefaultAnswerWindow is the time a player has for each question.
const DefaultAnswerWindow = 10 * time.Second

// GameService contains the trivia use cases.
type GameService struct {
	games       GameRepository
	bank        domain.QuestionBank
	catalog     CatalogRepository
	profiles    ProfileStore
	coordinator *GiftCoordinator
	opts        GameOptions
}

func NewGameService(games GameRepository, bank domain.QuestionBank, catalog CatalogRepository, profiles ProfileStore, opts GameOptions) *GameService {
	if opts.AnswerWindow == 0 {
		opts.AnswerWindow = DefaultAnswerWindow
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallClockScheduler{}
	}
	if opts.NewRand == nil {
		opts.NewRand = func() Shuffler { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GameService{
		games:       games,
		bank:        bank,
		catalog:     catalog,
		profiles:    profiles,
		coordinator: NewGiftCoordinator(profiles, opts.Recorder),
		opts:        opts,
	}
}

// Start begins a fresh game for the user, replacing any game in progress.
// The profile's gift state and the catalog are read once here.
func (s *GameService) Start(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	session, err := NewSession(s.bank, s.opts.QuestionsPerLevel, s.opts.NewRand())
	if err != nil {
		return domain.GameSnapshot{}, err
	}

	var gift *domain.Course
	if course, ok := ResolveGiftCourse(catalog, s.opts.GiftCourseID); ok {
		gift = &course
	}

	game := NewGame(GameParams{
		ID:           uuid.NewString(),
		UserID:       userID,
		Session:      session,
		Policy:       s.opts.Policy,
		Coordinator:  s.coordinator,
		GiftCourse:   gift,
		GiftState:    profile.GiftState(),
		Scheduler:    s.opts.Scheduler,
		AnswerWindow: s.opts.AnswerWindow,
		Recorder:     s.opts.Recorder,
		Now:          s.opts.Now,
	})
	game.Start()
	if previous, ok := s.games.Put(userID, game); ok {
		previous.Close()
	}
	s.opts.Recorder.GameStarted()
	logger.Infof("user %s started game %s", userID, game.ID())

	return game.Snapshot(ctx)
}

// Game returns the user's active game.
func (s *GameService) Game(userID string) (*Game, error) {
	game, ok := s.games.Get(userID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// Snapshot returns the current state of the user's game.
func (s *GameService) Snapshot(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.Snapshot(ctx)
}

// Choose records a pending option.
func (s *GameService) Choose(ctx context.Context, userID, option string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.Choose(ctx, option)
}

// Submit reveals the current answer.
func (s *GameService) Submit(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.Submit(ctx)
}

// Advance moves to the next question, level or result.
func (s *GameService) Advance(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.Advance(ctx)
}

// Restart replays a game that finished without a gift.
func (s *GameService) Restart(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.Restart(ctx)
}

// EndEarly finishes a game stuck on an empty level.
func (s *GameService) EndEarly(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return game.EndEarly(ctx)
}

// Claim confirms the gift claim of a finished game.
func (s *GameService) Claim(ctx context.Context, userID string) (domain.ClaimResult, error) {
	game, err := s.Game(userID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	return game.Claim(ctx)
}

// Subscribe returns a channel of events for the user's game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, userID string) (<-chan domain.Event, func(), error) {
	game, err := s.Game(userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := game.Subscribe()
	return ch, cancel, nil
}

// Close ends the user's game, if any. The session is discarded.
func (s *GameService) Close(_ context.Context, userID string) {
	game, ok := s.games.Get(userID)
	if !ok {
		return
	}
	s.games.Delete(userID, game)
	game.Close()
}

// Leave ends the user's game only while gameID is still the active one, so a
// connection that lost its game to a newer start does not close the newer game.
func (s *GameService) Leave(_ context.Context, userID, gameID string) {
	game, ok := s.games.Get(userID)
	if !ok || game.ID() != gameID {
		return
	}
	s.games.Delete(userID, game)
	game.Close()
	logger.Infof("user %s left game %s", userID, gameID)
}
