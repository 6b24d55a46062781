package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is a string key-value store with per-entry TTL. The chunk service
// uses it to memoize chunk runs so re-chunking identical text is free.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory creates a cache from its configuration.
type Factory func(config Config) (Cache, error)

// registry of cache implementations by type name.
var registry = make(map[string]Factory)

// RegisterCache registers a cache implementation under a type name.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates the cache selected by config.Type, defaulting to the
// in-memory implementation.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache settings.
type Config struct {
	// Type selects the implementation: "memory" or "redis".
	Type string
	// RedisAddr is the redis address (redis only).
	RedisAddr string
	// RedisPassword is the redis password (redis only).
	RedisPassword string
	// RedisDB is the redis database number (redis only).
	RedisDB int
	// DefaultTTL is the fallback expiry for entries set with ttl 0.
	DefaultTTL time.Duration
	// CleanupInterval is the expired-entry sweep interval (memory only).
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// ChunkKey derives a stable cache key for one chunk run: a digest of the
// input text plus the splitter parameters that shaped the output.
func ChunkKey(text string, splitType string, chunkSize, chunkOverlap int) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("chunks:%s:%s:%d:%d",
		hex.EncodeToString(sum[:16]), splitType, chunkSize, chunkOverlap)
}
