// Package cache provides the pluggable token cache used by the ARCA
// authenticator. WSAA tokens are valid ~12 hours, so caching them avoids a
// sign+exchange round-trip on every invoice. The interface is deliberately
// small (get / put-with-TTL) so a single node can run on process memory while
// multi-node deployments share tokens through Redis.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/infra"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores WSAA auth tokens keyed by (userID, cuit, environment).
// Get returns nil (no error) on a miss or an expired entry.
type TokenCache interface {
	Get(ctx context.Context, key string) (*infra.AuthToken, error)
	Put(ctx context.Context, key string, token *infra.AuthToken, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ─── In-memory implementation ────────────────────────────────────────────────

// MemoryTokenCache is a mutex-guarded map. Entries are dropped lazily on read
// once expired; no background sweep — staleness is bounded by the 12h token
// lifetime anyway.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]memoryEntry
}

type memoryEntry struct {
	token     infra.AuthToken
	expiresAt time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]memoryEntry)}
}

func (c *MemoryTokenCache) Get(_ context.Context, key string) (*infra.AuthToken, error) {
	c.mu.RLock()
	entry, ok := c.tokens[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have refreshed it
		if cur, ok := c.tokens[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.tokens, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	token := entry.token
	return &token, nil
}

func (c *MemoryTokenCache) Put(_ context.Context, key string, token *infra.AuthToken, ttl time.Duration) error {
	c.mu.Lock()
	c.tokens[key] = memoryEntry{token: *token, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
	return nil
}

var _ TokenCache = (*MemoryTokenCache)(nil)

// ─── Redis implementation ────────────────────────────────────────────────────

const redisKeyPrefix = "arca:token:"

// RedisTokenCache shares tokens across instances; Redis handles TTL expiry.
type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (*infra.AuthToken, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var token infra.AuthToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *RedisTokenCache) Put(ctx context.Context, key string, token *infra.AuthToken, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

var _ TokenCache = (*RedisTokenCache)(nil)
