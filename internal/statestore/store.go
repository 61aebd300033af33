// Package statestore keeps pending authorizations: the PKCE verifier of a
// login attempt, keyed by the correlation key that travels through the
// authorization server as the OAuth2 state parameter.
package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcogenualdo/classboard/internal/config"
)

// DefaultTTL is how long a pending authorization may wait for its callback.
const DefaultTTL = 600 * time.Second

// ErrNotFound is returned by Consume for unknown, expired or already consumed keys.
var ErrNotFound = errors.New("pending authorization not found")

// Store maps correlation keys to verifier secrets. A key can be consumed
// at most once; entries not consumed within the TTL disappear.
type Store interface {
	Begin(ctx context.Context, key, verifier string) error
	Consume(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

func New(cfg config.CacheConfig, ttl time.Duration, clock clockwork.Clock) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(ttl, clock), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis config is required for redis cache type")
		}
		return NewRedisStore(*cfg.Redis, ttl)
	default:
		return nil, errors.New("unsupported cache type: " + cfg.Type)
	}
}
