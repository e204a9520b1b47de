package redis

import (
	"context"
	"sync"
	"time"

	"course-trivia-service/internal/app"
	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Games run in-process (their timers and event loops cannot move), so the
//     store keeps a local map.
//   - Redis records which game ID is live for a user so other instances and
//     operators can see active games.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(userID string, game *app.Game) (*app.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.games[userID]
	s.games[userID] = game
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(userID), game.ID(), s.ttl).Err(); err != nil {
		logger.Warningf("mark game %s live: %v", game.ID(), err)
	}
	return previous, ok
}

func (s *GameStore) Get(userID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[userID]
	return game, ok
}

func (s *GameStore) Delete(userID string, game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.games[userID]
	if !ok || current != game {
		return
	}
	delete(s.games, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *GameStore) key(userID string) string {
	return "trivia:game:" + userID
}
