package cache

import (
	"context"
	"time"
)

// UpdateFunc receives the current value of a key (found=false when absent
// or expired) and returns the value to store.
type UpdateFunc func(current any, found bool) (any, error)

// Cache is session-scoped state such as the validation relay rate limit
// window. Update must apply fn atomically with respect to other calls on
// the same cache; when fn fails nothing is stored.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
}
