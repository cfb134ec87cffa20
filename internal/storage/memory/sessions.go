package memory

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/cache"
)

// SessionCache is a per-session key/value store with optional expiry.
type SessionCache struct {
	mu    sync.Mutex
	items map[string]sessionItem
	now   func() time.Time
}

type sessionItem struct {
	value   any
	expires time.Time
}

var _ cache.Cache = (*SessionCache)(nil)

func NewSessionCache() *SessionCache {
	return &SessionCache{items: make(map[string]sessionItem), now: time.Now}
}

// WithClock overrides the clock used for expiry.
func (c *SessionCache) WithClock(now func() time.Time) *SessionCache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *SessionCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.load(key)
	return value, ok, nil
}

func (c *SessionCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl)
	return nil
}

// Update holds the session lock across fn.
func (c *SessionCache) Update(_ context.Context, key string, ttl time.Duration, fn cache.UpdateFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, found := c.load(key)
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	c.store(key, next, ttl)
	return nil
}

func (c *SessionCache) load(key string) (any, bool) {
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !item.expires.IsZero() && !c.now().Before(item.expires) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

func (c *SessionCache) store(key string, value any, ttl time.Duration) {
	item := sessionItem{value: value}
	if ttl > 0 {
		item.expires = c.now().Add(ttl)
	}
	c.items[key] = item
}

func (c *SessionCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// DefaultSessionIdle is how long an unused session is kept.
const DefaultSessionIdle = 30 * time.Minute

// Sessions hands out one SessionCache per session id. Sessions unused for
// longer than the idle TTL are pruned lazily on access.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	idle      time.Duration
	nextSweep time.Time
	now       func() time.Time
}

type sessionEntry struct {
	cache    *SessionCache
	lastSeen time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*sessionEntry),
		idle:     DefaultSessionIdle,
		now:      time.Now,
	}
}

// WithClock overrides the clock of every session created afterwards.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	if now != nil {
		s.now = now
	}
	return s
}

// WithIdleTTL overrides how long an unused session survives.
func (s *Sessions) WithIdleTTL(idle time.Duration) *Sessions {
	if idle > 0 {
		s.idle = idle
	}
	return s
}

// Session returns the cache for id, creating it on first use.
func (s *Sessions) Session(id string) cache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	e, ok := s.sessions[id]
	if !ok {
		e = &sessionEntry{cache: NewSessionCache().WithClock(s.now)}
		s.sessions[id] = e
	}
	e.lastSeen = now
	return e.cache
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep runs at most once per quarter of the idle TTL.
func (s *Sessions) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(s.idle / 4)
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) >= s.idle {
			delete(s.sessions, id)
		}
	}
}
