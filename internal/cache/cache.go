// Package cache stores upstream HTTP responses for a limited time so that
// repeated curation runs within the TTL do not hit source sites again.
//
// Two backends implement Cache: an in-process MemoryCache (the default) and
// a RedisCache shared between processes. Transport plugs either into an
// http.Client.
package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL matches the upstream revalidation window
const DefaultTTL = time.Hour

// Cache is a byte-oriented key/value store with expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl uses the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Error is a cache error constant
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed
	ErrCacheClosed Error = "cache closed"
)

// Backend names accepted by New
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend
type Options struct {
	Backend  string
	RedisURL string
	Prefix   string
	TTL      time.Duration
}

// New creates the configured cache. BackendNone returns a nil Cache, which
// Transport treats as pass-through.
func New(opts Options) (Cache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryCache(ttl), nil
	case BackendRedis:
		rc, err := NewRedisCacheFromURL(opts.RedisURL, opts.Prefix, ttl)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return rc, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
