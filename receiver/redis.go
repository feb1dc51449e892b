package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix is prepended to token ids stored by RedisReplayGuard.
const DefaultRedisKeyPrefix = "qstash:jti:"

// RedisClient is the subset of redis.Cmdable used by RedisReplayGuard.
// *redis.Client, *redis.ClusterClient and *redis.Ring satisfy it.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisReplayGuard is a ReplayGuard shared by every process connected to
// the same Redis deployment.
type RedisReplayGuard struct {
	client RedisClient
	prefix string
}

// NewRedisReplayGuard creates a RedisReplayGuard. An empty prefix selects
// DefaultRedisKeyPrefix.
func NewRedisReplayGuard(client RedisClient, prefix string) *RedisReplayGuard {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisReplayGuard{client: client, prefix: prefix}
}

func (g *RedisReplayGuard) Claim(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if tokenID == "" {
		return false, errEmptyTokenID
	}
	ok, err := g.client.SetNX(ctx, g.prefix+tokenID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record token id: %w", err)
	}
	return ok, nil
}

var _ ReplayGuard = (*RedisReplayGuard)(nil)
var _ RedisClient = (*redis.Client)(nil)
