package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("session: cache miss")
	ErrNotMember = errors.New("session: user is not a member of the organization")
)

// Cache is the session-scoped key/value slot store used for autosave.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
