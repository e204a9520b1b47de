package memory

import (
	"sync"

	"course-trivia-service/internal/app"
)

// GameStore is an in-memory implementation of app.GameRepository.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(userID string, game *app.Game) (*app.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.games[userID]
	s.games[userID] = game
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
	if current, ok := s.games[userID]; ok && current == game {
		delete(s.games, userID)
	}
}
