package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

// table keeps records by value in insertion order. Readers get copies.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]T
	order []uuid.UUID
	meta  func(*T) *domain.RecordMeta
	now   func() time.Time
}

func newTable[T any](meta func(*T) *domain.RecordMeta) *table[T] {
	return &table[T]{
		rows: make(map[uuid.UUID]T),
		meta: meta,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (t *table[T]) insert(record *T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertLocked(record)
}

func (t *table[T]) insertLocked(record *T) {
	m := t.meta(record)
	m.Touch(t.now())
	if _, exists := t.rows[m.ID]; !exists {
		t.order = append(t.order, m.ID)
	}
	t.rows[m.ID] = *record
}

func (t *table[T]) replace(record *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.meta(record)
	if _, ok := t.rows[m.ID]; !ok || m.ID == uuid.Nil {
		return store.ErrNotFound
	}
	m.Touch(t.now())
	t.rows[m.ID] = *record
	return nil
}

func (t *table[T]) get(id uuid.UUID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	record, ok := t.rows[id]
	if !ok || !t.meta(&record).DeletedAt.IsZero() {
		return nil, store.ErrNotFound
	}
	return &record, nil
}

// first returns the oldest live record accepted by match.
func (t *table[T]) first(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		record := t.rows[id]
		if t.meta(&record).DeletedAt.IsZero() && match(&record) {
			return &record, nil
		}
	}
	return nil, store.ErrNotFound
}

// find pages through records accepted by match in insertion order. A nil
// match accepts everything.
func (t *table[T]) find(opts store.ListOptions, match func(*T) bool) store.ListResult[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var hits []T
	for _, id := range t.order {
		record := t.rows[id]
		m := t.meta(&record)
		switch {
		case !opts.IncludeSoftDeleted && !m.DeletedAt.IsZero():
			continue
		case !opts.Since.IsZero() && m.CreatedAt.Before(opts.Since):
			continue
		case !opts.Until.IsZero() && m.CreatedAt.After(opts.Until):
			continue
		case match != nil && !match(&record):
			continue
		}
		hits = append(hits, record)
	}
	return page(hits, opts.Offset, opts.Limit)
}

func (t *table[T]) retire(id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	if m := t.meta(&record); m.DeletedAt.IsZero() {
		m.DeletedAt = t.now()
		t.rows[id] = record
	}
	return nil
}

func page[T any](items []T, offset, limit int) store.ListResult[T] {
	total := len(items)
	start := min(max(offset, 0), total)
	end := total
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return store.ListResult[T]{Items: items[start:end], Total: total}
}
