package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clientdesk-api/config"
	"github.com/redis/go-redis/v9"
)

const (
	unreadKeyPrefix        = "notifications:unread:"
	unreadVersionKeyPrefix = "notifications:unread-version:"

	// versionTTL only needs to outlive any single count query
	versionTTL = 24 * time.Hour
)

// setIfVersion stores the count only when the version key still holds the
// version the caller read before counting. A missing version key is 0.
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if (current or '0') ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// NewRedisClient opens a client and verifies the server is reachable
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// UnreadCache keeps per-user unread notification counts in redis
type UnreadCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewUnreadCache wraps a redis client. A non-positive ttl stores entries
// without expiry.
func NewUnreadCache(rdb redis.Cmdable, ttl time.Duration) *UnreadCache {
	if ttl < 0 {
		ttl = 0
	}
	return &UnreadCache{rdb: rdb, ttl: ttl}
}

func unreadKey(userID string) string {
	return unreadKeyPrefix + userID
}

func unreadVersionKey(userID string) string {
	return unreadVersionKeyPrefix + userID
}

// GetUnread returns the cached count; ok is false on a miss
func (c *UnreadCache) GetUnread(ctx context.Context, userID string) (int64, bool, error) {
	count, err := c.rdb.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// UnreadVersion returns the user's current cache version
func (c *UnreadCache) UnreadVersion(ctx context.Context, userID string) (int64, error) {
	version, err := c.rdb.Get(ctx, unreadVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetUnread stores count if no invalidation happened since version was read
func (c *UnreadCache) SetUnread(ctx context.Context, userID string, count, version int64) (bool, error) {
	stored, err := setIfVersion.Run(ctx, c.rdb,
		[]string{unreadKey(userID), unreadVersionKey(userID)},
		version, count, c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// InvalidateUnread bumps the version and drops the cached count atomically
func (c *UnreadCache) InvalidateUnread(ctx context.Context, userID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, unreadVersionKey(userID))
		pipe.Expire(ctx, unreadVersionKey(userID), versionTTL)
		pipe.Del(ctx, unreadKey(userID))
		return nil
	})
	return err
}
