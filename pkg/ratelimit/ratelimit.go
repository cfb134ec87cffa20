// Package ratelimit implements the per-caller sliding window guarding the
// email validation relay. Window state lives in the caller's session.
package ratelimit

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/blake2b"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/cache"
)

const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 10
	KeyPrefix     = "zb_rate_"
)

// ErrStoreRequired is returned when no session store is supplied.
var ErrStoreRequired = errors.New("ratelimit: session store required")

var rejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "survey_collector_rate_limited_total",
	Help: "Relay requests rejected by the sliding window limiter.",
}, []string{"scope"})

// Config bounds the window.
type Config struct {
	Window time.Duration
	Max    int
}

// Limiter counts timestamps inside a sliding window. It keeps no state of
// its own.
type Limiter struct {
	cfg   Config
	scope string
	now   func() time.Time
}

type Option func(*Limiter)

func WithConfig(cfg Config) Option {
	return func(l *Limiter) {
		if cfg.Window > 0 {
			l.cfg.Window = cfg.Window
		}
		if cfg.Max > 0 {
			l.cfg.Max = cfg.Max
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithScope labels rejections in metrics.
func WithScope(scope string) Option {
	return func(l *Limiter) {
		if scope = strings.TrimSpace(scope); scope != "" {
			l.scope = scope
		}
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		cfg:   Config{Window: DefaultWindow, Max: DefaultMax},
		scope: "zerobounce",
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Config returns the effective window settings.
func (l *Limiter) Config() Config { return l.cfg }

// Key derives the session key for a caller address.
func Key(ip string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(ip)))
	return KeyPrefix + hex.EncodeToString(sum[:16])
}

// Allow prunes expired timestamps for ip, then records the call when the
// window has room. Rejected calls are not recorded. The check and the
// write happen in one cache update, so concurrent calls of a session
// cannot both take the last slot.
func (l *Limiter) Allow(ctx context.Context, store cache.Cache, ip string) (bool, error) {
	if store == nil {
		return false, ErrStoreRequired
	}
	now := l.now()
	allowed := false
	err := store.Update(ctx, Key(ip), l.cfg.Window, func(current any, _ bool) (any, error) {
		window := prune(stamps(current), now.Add(-l.cfg.Window))
		if len(window) >= l.cfg.Max {
			return window, nil
		}
		allowed = true
		return append(window, now.UnixNano()), nil
	})
	if err != nil {
		return false, fmt.Errorf("ratelimit: update window: %w", err)
	}
	if !allowed {
		rejected.WithLabelValues(l.scope).Inc()
	}
	return allowed, nil
}

func stamps(raw any) []int64 {
	switch v := raw.(type) {
	case []int64:
		return append([]int64(nil), v...)
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int64:
				out = append(out, n)
			case float64:
				out = append(out, int64(n))
			}
		}
		return out
	default:
		return nil
	}
}

func prune(window []int64, cutoff time.Time) []int64 {
	c := cutoff.UnixNano()
	kept := window[:0]
	for _, ts := range window {
		if ts > c {
			kept = append(kept, ts)
		}
	}
	return kept
}
