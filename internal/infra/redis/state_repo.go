package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/metrics"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps per-chat conversation state in Redis; every write refreshes the TTL.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateRepo(client RedisClient, ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{client: client, ttl: ttl}
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("conv_state:%d", chatID)
}

func (s *StateRepo) SetState(ctx context.Context, chatID int64, state *repository.ConversationState) error {
	if state == nil {
		return domain.ErrInvalidArgument
	}
	cp := *state
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(chatID), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, chatID int64) (*repository.ConversationState, error) {
	data, err := s.client.Get(ctx, stateKey(chatID))
	if errors.Is(err, redis.Nil) {
		metrics.IncStateLookup("redis", "miss")
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	metrics.IncStateLookup("redis", "hit")
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, stateKey(chatID))
}
