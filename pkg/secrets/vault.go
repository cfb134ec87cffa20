package secrets

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Vault fronts a Provider with a short-lived cache. Misses are cached too,
// so projects without vaulted keys do not hit storage on every request.
// Writes through the vault invalidate the affected entry.
type Vault struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[Reference]vaultEntry
}

type vaultEntry struct {
	value   SecretValue
	found   bool
	expires time.Time
}

// NewVault wraps provider. A ttl <= 0 disables caching.
func NewVault(provider Provider, ttl time.Duration) *Vault {
	return &Vault{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[Reference]vaultEntry),
	}
}

var _ Resolver = (*Vault)(nil)

// Resolve returns the stored values of refs. Provider errors other than
// ErrNotFound abort the batch and are not cached.
func (v *Vault) Resolve(ctx context.Context, refs ...Reference) (map[Reference]SecretValue, error) {
	if v == nil || v.provider == nil {
		return nil, ErrUnsupported
	}
	out := make(map[Reference]SecretValue, len(refs))
	now := v.now()
	for _, ref := range refs {
		if entry, ok := v.cached(ref, now); ok {
			if entry.found {
				out[ref] = entry.value
			}
			continue
		}
		val, err := v.provider.Get(ctx, ref)
		switch {
		case errors.Is(err, ErrNotFound):
			v.remember(ref, vaultEntry{expires: now.Add(v.ttl)})
		case err != nil:
			return nil, err
		default:
			v.remember(ref, vaultEntry{value: val, found: true, expires: now.Add(v.ttl)})
			out[ref] = val
		}
	}
	return out, nil
}

// Store writes value under ref and returns the stored version.
func (v *Vault) Store(ctx context.Context, ref Reference, value []byte) (string, error) {
	if v == nil || v.provider == nil {
		return "", ErrUnsupported
	}
	version, err := v.provider.Put(ctx, ref, value)
	if err != nil {
		return "", err
	}
	v.Invalidate(ref)
	return version, nil
}

// Remove deletes every version stored under ref.
func (v *Vault) Remove(ctx context.Context, ref Reference) error {
	if v == nil || v.provider == nil {
		return ErrUnsupported
	}
	if err := v.provider.Delete(ctx, ref); err != nil {
		return err
	}
	v.Invalidate(ref)
	return nil
}

// Invalidate drops cached entries for refs, including their latest alias.
func (v *Vault) Invalidate(refs ...Reference) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, ref := range refs {
		delete(v.entries, ref)
		delete(v.entries, ref.latest())
	}
}

func (v *Vault) cached(ref Reference, now time.Time) (vaultEntry, bool) {
	if v.ttl <= 0 {
		return vaultEntry{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.entries[ref]
	if !ok || !entry.expires.After(now) {
		return vaultEntry{}, false
	}
	return entry, true
}

func (v *Vault) remember(ref Reference, entry vaultEntry) {
	if v.ttl <= 0 {
		return
	}
	v.mu.Lock()
	v.entries[ref] = entry
	v.mu.Unlock()
}
