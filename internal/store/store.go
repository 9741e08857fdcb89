// Package store persists user profiles and conversation state.
package store

import (
	"context"
	"sync"

	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

// ProfileStore holds one profile per user. GetProfile returns nil, nil when
// the user has no profile yet.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SetProfile(ctx context.Context, userID string, profile *models.UserProfile) error
}

// StateStore holds one conversation state per session. GetState returns
// nil, nil for a session that has not started.
type StateStore interface {
	GetState(ctx context.Context, sessionID string) (*models.ConversationState, error)
	SetState(ctx context.Context, sessionID string, state *models.ConversationState) error
}

// KeyedMutex serialises work per key within one process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the unlock func. Entries are
// dropped once no goroutine holds or waits on them.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len is the number of live keys.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
