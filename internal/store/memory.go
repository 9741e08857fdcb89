package store

import (
	"context"
	"sync"
	"time"

	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

// MemoryProfileStore keeps profiles in process. Used when Postgres is not
// configured and in tests.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func (s *MemoryProfileStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID].Clone(), nil
}

func (s *MemoryProfileStore) SetProfile(_ context.Context, userID string, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = profile.Clone()
	return nil
}

type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]models.ConversationState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]models.ConversationState)}
}

func (s *MemoryStateStore) GetState(_ context.Context, sessionID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStateStore) SetState(_ context.Context, sessionID string, state *models.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = *state
	return nil
}
