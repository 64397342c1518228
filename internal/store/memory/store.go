package memory

import (
	"context"
	"sync"

	"github.com/victornm/asking/internal/domain"
)

// ScoreStore keeps score records in process memory. Useful for development and tests.
type ScoreStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		collections: make(map[string][]domain.ScoreRecord),
	}
}

func (s *ScoreStore) Append(_ context.Context, collection string, r domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[collection] = append(s.collections[collection], r)
	return nil
}

func (s *ScoreStore) FetchAll(_ context.Context, collection string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ScoreRecord(nil), s.collections[collection]...), nil
}

// ProfileStore keeps display name overrides keyed by user ID.
type ProfileStore struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		names: make(map[string]string),
	}
}

func (s *ProfileStore) DisplayName(_ context.Context, userID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.names[userID]
	return n, ok, nil
}

func (s *ProfileStore) SetDisplayName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[userID] = name
	return nil
}
