package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

const (
	storeRedis     = "redis"
	stateKeyPrefix = "conv:state:"
)

// RedisStateStore keeps one JSON document per session. A zero TTL keeps
// state forever.
type RedisStateStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{redis: client, ttl: ttl}
}

func stateKey(sessionID string) string {
	return stateKeyPrefix + sessionID
}

func (s *RedisStateStore) GetState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	val, err := s.redis.Get(ctx, stateKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.NewStoreReadFailedError(storeRedis, err)
	}

	var st models.ConversationState
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, apperrors.NewStoreReadFailedError(storeRedis, fmt.Errorf("decode state: %w", err))
	}
	return &st, nil
}

func (s *RedisStateStore) SetState(ctx context.Context, sessionID string, state *models.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return apperrors.NewStoreWriteFailedError(storeRedis, err)
	}
	if err := s.redis.Set(ctx, stateKey(sessionID), data, s.ttl).Err(); err != nil {
		return apperrors.NewStoreWriteFailedError(storeRedis, err)
	}
	return nil
}
