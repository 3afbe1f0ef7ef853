package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

// pingTimeout bounds the connection check in OpenRedis.
const pingTimeout = 5 * time.Second

// RedisLedger keeps processed bill ids in a Redis set.
type RedisLedger struct {
	client *redis.Client
	key    string
}

var _ ports.Ledger = (*RedisLedger)(nil)

// NewRedisLedger stores ids under key.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	return &RedisLedger{client: client, key: key}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, dsn string) (*redis.Client, error) {
	if dsn == "" {
		return nil, errors.New("redis dsn is required")
	}
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Load returns the members of the set.
func (l *RedisLedger) Load(ctx context.Context) (domain.SeenSet, error) {
	ids, err := l.client.SMembers(ctx, l.key).Result()
	if err != nil {
		return domain.NewSeenSet(), fmt.Errorf("smembers %s: %w", l.key, err)
	}
	return domain.NewSeenSet(ids...), nil
}

// Save replaces the set atomically with MULTI/EXEC.
func (l *RedisLedger) Save(ctx context.Context, seen domain.SeenSet) error {
	ids := seen.IDs()
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, l.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, l.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", l.key, err)
	}
	return nil
}
