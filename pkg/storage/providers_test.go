package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

func TestBunProvidersRequireDB(t *testing.T) {
	if _, err := NewBunProviders(nil); !errors.Is(err, ErrDBRequired) {
		t.Fatalf("expected ErrDBRequired, got %v", err)
	}
}

func TestSQLiteProvidersPersistSettings(t *testing.T) {
	db, err := OpenSQLite("file:providers?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := CreateTables(ctx, db); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	providers, err := NewBunProviders(db)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}

	err = providers.Settings.Upsert(ctx, &domain.Setting{
		Scope:     domain.SettingScopeSystem,
		SubjectID: domain.SystemSubjectID,
		Key:       "encryption-key",
		Value:     "deploy-key",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := providers.Settings.Get(ctx, domain.SettingScopeSystem, domain.SystemSubjectID, "encryption-key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != "deploy-key" {
		t.Fatalf("unexpected value %q", got.Value)
	}
}

func TestMemoryProviders(t *testing.T) {
	p := NewMemoryProviders()
	if p.Settings == nil || p.Audit == nil || p.Secrets == nil {
		t.Fatalf("expected every repository to be set: %+v", p)
	}
	ran := false
	if err := p.Transaction.WithinTransaction(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}); err != nil || !ran {
		t.Fatalf("expected nop transaction to run callback")
	}
	var _ store.TransactionManager = p.Transaction
}
