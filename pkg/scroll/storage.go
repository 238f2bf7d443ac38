package scroll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Storage is a session-scoped map from location key to scroll offset.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the offset recorded for key. ok is false when none exists.
	Get(ctx context.Context, session, key string) (top int, ok bool, err error)

	// Set records the offset for key.
	Set(ctx context.Context, session, key string, top int) error
}

// DefaultMemoryEntries bounds MemoryStorage across all sessions.
const DefaultMemoryEntries = 10_000

// MemoryStorage keeps offsets in process memory. The least recently used
// entries are evicted once the capacity is reached.
type MemoryStorage struct {
	cache *lru.Cache[string, int]
}

// NewMemoryStorage creates a memory storage holding at most size entries.
// A non-positive size selects DefaultMemoryEntries.
func NewMemoryStorage(size int) *MemoryStorage {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		// Only returned for non-positive sizes.
		panic(err)
	}
	return &MemoryStorage{cache: cache}
}

func memoryKey(session, key string) string {
	return session + "\x00" + key
}

// Get implements Storage.
func (m *MemoryStorage) Get(_ context.Context, session, key string) (int, bool, error) {
	top, ok := m.cache.Get(memoryKey(session, key))
	return top, ok, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(_ context.Context, session, key string, top int) error {
	m.cache.Add(memoryKey(session, key), top)
	return nil
}

// Len returns the number of stored offsets.
func (m *MemoryStorage) Len() int {
	return m.cache.Len()
}

// RedisClient is the subset of redis.Cmdable used by RedisStorage.
type RedisClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisStorage keeps one hash per session: field = location key, value = offset.
// The hash expires after TTL of inactivity.
type RedisStorage struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisPrefix sets the key prefix. Default: "nitro:scroll:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

// WithRedisTTL sets how long a session's offsets survive. Default: 24h.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStorage) {
		s.ttl = ttl
	}
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client RedisClient, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: "nitro:scroll:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) key(session string) string {
	return s.prefix + session
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, session, key string) (int, bool, error) {
	val, err := s.client.HGet(ctx, s.key(session), key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis hget: %w", err)
	}
	top, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("redis hget: corrupt offset %q: %w", val, err)
	}
	return top, true, nil
}

// Set implements Storage.
func (s *RedisStorage) Set(ctx context.Context, session, key string, top int) error {
	k := s.key(session)
	if err := s.client.HSet(ctx, k, key, top).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, k, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}
