package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rupaiya/internal/importer"
)

// RedisStore keeps each collection under "<prefix>:<key>". Ledger writers
// take "<prefix>:ledger-lock" so every process sharing the Redis mutates
// one snapshot at a time.
type RedisStore struct {
	client *redis.Client
	prefix string
	writer *RedisLock
}

var _ Locker = (*RedisStore)(nil)

// NewRedisClient connects to redisURL, which may be a full redis:// URL or
// a bare host:port.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		redisURL = "localhost:6379"
	}
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rupaiya"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		writer: &RedisLock{client: client, key: prefix + ":" + ledgerLockName + "-lock", ttl: ledgerLockTTL},
	}
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range entries {
			p.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis multi set: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context) (func(), error) {
	return s.writer.Lock(ctx)
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }

// RedisLock is a lock shared by every process using the same Redis. It
// serves as the import guard (TryAcquire) and as the ledger writer lock
// (Lock). The key expires after ttl so a crashed holder cannot block others
// forever.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ importer.Guard = (*RedisLock)(nil)

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func NewRedisLock(client *redis.Client, prefix string, ttl time.Duration) *RedisLock {
	if prefix == "" {
		prefix = "rupaiya"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLock{client: client, key: prefix + ":import-lock", ttl: ttl}
}

func (l *RedisLock) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, importer.ErrInFlight
	}
	return sync.OnceFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}), nil
}

// Lock waits until the lock is free and takes it.
func (l *RedisLock) Lock(ctx context.Context) (func(), error) {
	var release func()
	err := pollLock(ctx, func(ctx context.Context) (bool, error) {
		r, err := l.TryAcquire(ctx)
		if errors.Is(err, importer.ErrInFlight) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		release = r
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}
