package secrets

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func newTestProvider(t *testing.T, seed byte) (*EncryptedStoreProvider, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	prov, err := NewEncryptedStoreProvider(store, bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	return prov, store
}

func TestEncryptedStoreProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	prov, _ := newTestProvider(t, 1)

	ref := SystemRef("zerobounce", "zerobounce-api-key")
	ver, err := prov.Put(ctx, ref, []byte("supersecret"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ver == "" {
		t.Fatalf("expected version")
	}

	got, err := prov.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != "supersecret" || got.Version != ver {
		t.Fatalf("unexpected value %q@%s", got.Data, got.Version)
	}
}

func TestEncryptedStoreProviderLatestVersionWins(t *testing.T) {
	ctx := context.Background()
	prov, _ := newTestProvider(t, 3)
	ref := ProjectRef("12", "numverify", "numverify-api-key")

	if _, err := prov.Put(ctx, Reference{Scope: ref.Scope, SubjectID: ref.SubjectID, Integration: ref.Integration, Key: ref.Key, Version: "a"}, []byte("old")); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if _, err := prov.Put(ctx, Reference{Scope: ref.Scope, SubjectID: ref.SubjectID, Integration: ref.Integration, Key: ref.Key, Version: "b"}, []byte("new")); err != nil {
		t.Fatalf("put b: %v", err)
	}
	got, err := prov.Get(ctx, ref)
	if err != nil || string(got.Data) != "new" {
		t.Fatalf("expected latest value, got %q (%v)", got.Data, err)
	}
	pinned := ref
	pinned.Version = "a"
	got, err = prov.Get(ctx, pinned)
	if err != nil || string(got.Data) != "old" {
		t.Fatalf("expected pinned value, got %q (%v)", got.Data, err)
	}
}

func TestEncryptedStoreProviderRejectsMovedRecord(t *testing.T) {
	ctx := context.Background()
	prov, store := newTestProvider(t, 4)

	if _, err := prov.Put(ctx, ProjectRef("12", "zerobounce", "zerobounce-api-key"), []byte("k12")); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, err := store.GetLatest(ctx, string(ScopeProject), "12", "zerobounce", "zerobounce-api-key")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	rec.SubjectID = "99"
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if _, err := prov.Get(ctx, ProjectRef("99", "zerobounce", "zerobounce-api-key")); !errors.Is(err, ErrSealBroken) {
		t.Fatalf("expected ErrSealBroken, got %v", err)
	}
}

func TestEncryptedStoreProviderDelete(t *testing.T) {
	ctx := context.Background()
	prov, _ := newTestProvider(t, 2)
	ref := ProjectRef("p1", "numverify", "numverify-api-key")
	if _, err := prov.Put(ctx, ref, []byte("k")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := prov.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := prov.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestEncryptedStoreProviderValidatesInput(t *testing.T) {
	ctx := context.Background()
	prov, _ := newTestProvider(t, 5)
	if _, err := prov.Put(ctx, Reference{Scope: "tenant", SubjectID: "1", Integration: "x", Key: "y"}, []byte("v")); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
	if _, err := prov.Put(ctx, SystemRef("zerobounce", "zerobounce-api-key"), nil); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
	if _, err := NewEncryptedStoreProvider(NewMemoryStore(), []byte("short")); err == nil {
		t.Fatalf("expected key size error")
	}
}
