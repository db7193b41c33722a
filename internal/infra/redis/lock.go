// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"telegram-media-relay/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisLocker is a single-key SETNX lock. The scheduler uses it so that replicas
// sharing one Redis never post the same scheduled slot twice.
type RedisLocker struct {
	cli   *redis.Client
	owner string
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli, owner: uuid.NewString()}
}

// TryLock claims key for ttl and returns domain.ErrLocked when it is already held.
// Claims are never released; they expire with the ttl.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := l.cli.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrLocked
	}
	return nil
}
