package storage

import (
	"context"
	"database/sql"
	"errors"

	persistence "github.com/goliatone/go-persistence-bun"
	bunrepo "github.com/goliatone/go-survey-collector/internal/storage/bun"
	"github.com/goliatone/go-survey-collector/internal/storage/memory"
	"github.com/goliatone/go-survey-collector/pkg/domain"
	secretsiface "github.com/goliatone/go-survey-collector/pkg/interfaces/secrets"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// ErrDBRequired is returned when bun providers are built without a database.
var ErrDBRequired = errors.New("storage: bun DB is required")

// Providers exposes all repositories needed by services.
type Providers struct {
	Settings    store.SettingRepository
	Audit       store.AuditRepository
	Secrets     secretsiface.Store
	Transaction store.TransactionManager
}

type Option func(*Providers)

// WithSecretStore overrides the secret record store.
func WithSecretStore(s secretsiface.Store) Option {
	return func(p *Providers) {
		if s != nil {
			p.Secrets = s
		}
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		Settings:    memory.NewSettingRepository(),
		Audit:       memory.NewAuditRepository(),
		Secrets:     secrets.NewMemoryStore(),
		Transaction: &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// Models lists the bun models owned by the collector.
func Models() []any {
	return []any{
		(*domain.Setting)(nil),
		(*domain.AuditEntry)(nil),
	}
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) (Providers, error) {
	if db == nil {
		return Providers{}, ErrDBRequired
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(Models()...)

	providers := Providers{
		Settings:    bunrepo.NewSettingRepository(db),
		Audit:       bunrepo.NewAuditRepository(db),
		Secrets:     bunrepo.NewSecretStore(db),
		Transaction: &bunTxManager{db: db},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers, nil
}

// CreateTables creates the collector tables when missing.
func CreateTables(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return ErrDBRequired
	}
	for _, model := range append(Models(), bunrepo.SecretModel()) {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// OpenSQLite opens a bun DB on the sqlite driver selected by sqliteshim.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
