package bunrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

// AuditRepository stores privileged-action audit entries.
type AuditRepository struct {
	rows table[domain.AuditEntry]
}

var _ store.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *bun.DB) *AuditRepository {
	return &AuditRepository{
		rows: newTable(db, func(a *domain.AuditEntry) *domain.RecordMeta { return &a.RecordMeta }),
	}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return r.rows.insert(ctx, entry)
}

func (r *AuditRepository) Update(ctx context.Context, entry *domain.AuditEntry) error {
	return r.rows.replace(ctx, entry)
}

func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	return r.rows.byID(ctx, id)
}

func (r *AuditRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.AuditEntry], error) {
	return r.rows.find(ctx, opts)
}

func (r *AuditRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.rows.retire(ctx, id)
}

func (r *AuditRepository) ListByVerb(ctx context.Context, verb string, opts store.ListOptions) (store.ListResult[domain.AuditEntry], error) {
	return r.rows.find(ctx, opts, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("verb = ?", verb)
	})
}
