package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

const profileKeyPrefix = "profile:"

// CachedProfileStore is a cache-aside decorator over a ProfileStore. Reads
// try Redis first; writes go to the backing store and then refresh the
// cache. Redis failures never fail a call.
type CachedProfileStore struct {
	next   ProfileStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProfileStore(next ProfileStore, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProfileStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedProfileStore{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "profile-cache"}),
	}
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

func (s *CachedProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if val, err := s.redis.Get(ctx, profileKey(userID)).Result(); err == nil {
		var p models.UserProfile
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn("profile cache read failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}

	p, err := s.next.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}
	s.fill(ctx, userID, p)
	return p, nil
}

func (s *CachedProfileStore) SetProfile(ctx context.Context, userID string, profile *models.UserProfile) error {
	if err := s.next.SetProfile(ctx, userID, profile); err != nil {
		if delErr := s.redis.Del(ctx, profileKey(userID)).Err(); delErr != nil {
			s.logger.Warn("profile cache invalidate failed", map[string]interface{}{
				"userId": userID,
				"error":  delErr.Error(),
			})
		}
		return err
	}
	s.fill(ctx, userID, profile)
	return nil
}

func (s *CachedProfileStore) fill(ctx context.Context, userID string, p *models.UserProfile) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, profileKey(userID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}
