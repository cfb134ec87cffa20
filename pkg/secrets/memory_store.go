package secrets

import (
	"context"
	"sort"
	"sync"

	iface "github.com/goliatone/go-survey-collector/pkg/interfaces/secrets"
)

type recordKey struct {
	scope, subject, integration, key string
}

func keyOf(scope, subjectID, integration, key string) recordKey {
	return recordKey{scope: scope, subject: subjectID, integration: integration, key: key}
}

// MemoryStore keeps sealed secret records in memory, versions in insertion
// order per key.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[recordKey][]iface.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[recordKey][]iface.Record)}
}

func (m *MemoryStore) Put(_ context.Context, rec iface.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(rec.Scope, rec.SubjectID, rec.Integration, rec.Key)
	versions := m.items[k]
	for i, existing := range versions {
		if existing.Version == rec.Version {
			versions[i] = rec
			return nil
		}
	}
	m.items[k] = append(versions, rec)
	return nil
}

// GetLatest returns the most recently written version.
func (m *MemoryStore) GetLatest(_ context.Context, scope, subjectID, integration, key string) (iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.items[keyOf(scope, subjectID, integration, key)]
	if len(versions) == 0 {
		return iface.Record{}, ErrNotFound
	}
	return versions[len(versions)-1], nil
}

func (m *MemoryStore) GetVersion(_ context.Context, scope, subjectID, integration, key, version string) (iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.items[keyOf(scope, subjectID, integration, key)] {
		if rec.Version == version {
			return rec, nil
		}
	}
	return iface.Record{}, ErrNotFound
}

func (m *MemoryStore) Delete(_ context.Context, scope, subjectID, integration, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, keyOf(scope, subjectID, integration, key))
	return nil
}

// List filters by any non-empty argument.
func (m *MemoryStore) List(_ context.Context, scope, subjectID, integration, key string) ([]iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []iface.Record
	for k, versions := range m.items {
		if (scope != "" && k.scope != scope) ||
			(subjectID != "" && k.subject != subjectID) ||
			(integration != "" && k.integration != integration) ||
			(key != "" && k.key != key) {
			continue
		}
		out = append(out, versions...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}
