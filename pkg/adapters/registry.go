package adapters

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Capability describes the data families an integration can fill.
type Capability struct {
	Name     string
	Families []string
	Metadata map[string]string
}

// Integration is implemented by external data providers (ip-api, ZeroBounce, ...).
type Integration interface {
	Name() string
	Capabilities() Capability
	Configured() bool
}

// ErrIntegrationNotFound is returned when no integration serves a family.
var ErrIntegrationNotFound = errors.New("adapters: no integration matches family")

// Registry stores available integrations and indexes them by family.
type Registry struct {
	mu           sync.RWMutex
	integrations map[string]Integration
	byFamily     map[string][]Integration
}

// NewRegistry builds a registry with the supplied integrations.
func NewRegistry(integrations ...Integration) *Registry {
	reg := &Registry{
		integrations: make(map[string]Integration),
		byFamily:     make(map[string][]Integration),
	}
	for _, i := range integrations {
		reg.Register(i)
	}
	return reg
}

// Register adds an integration, indexing by name and supported families.
func (r *Registry) Register(i Integration) {
	if r == nil || i == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := normalizeKey(i.Name())
	if name != "" {
		r.integrations[name] = i
	}
	for _, family := range i.Capabilities().Families {
		key := normalizeKey(family)
		if key == "" {
			continue
		}
		r.byFamily[key] = append(r.byFamily[key], i)
	}
}

// Get returns the integration registered under name.
func (r *Registry) Get(name string) (Integration, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.integrations[normalizeKey(name)]
	return i, ok
}

// ForFamily returns the first integration able to fill family.
func (r *Registry) ForFamily(family string) (Integration, error) {
	if r == nil {
		return nil, ErrIntegrationNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byFamily[normalizeKey(family)]
	if len(candidates) == 0 {
		return nil, ErrIntegrationNotFound
	}
	return candidates[0], nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Describe returns a human-readable summary of the registry entries.
func (r *Registry) Describe() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.integrations))
	for name, i := range r.integrations {
		state := "disabled"
		if i.Configured() {
			state = "configured"
		}
		out = append(out, fmt.Sprintf("%s (%s) %s", name, strings.Join(i.Capabilities().Families, ","), state))
	}
	sort.Strings(out)
	return out
}
