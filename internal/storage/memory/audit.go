package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

type AuditRepository struct {
	rows *table[domain.AuditEntry]
}

var _ store.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		rows: newTable(func(a *domain.AuditEntry) *domain.RecordMeta { return &a.RecordMeta }),
	}
}

func (r *AuditRepository) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.rows.insert(entry)
	return nil
}

func (r *AuditRepository) Update(_ context.Context, entry *domain.AuditEntry) error {
	return r.rows.replace(entry)
}

func (r *AuditRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	return r.rows.get(id)
}

func (r *AuditRepository) List(_ context.Context, opts store.ListOptions) (store.ListResult[domain.AuditEntry], error) {
	return r.rows.find(opts, nil), nil
}

func (r *AuditRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.rows.retire(id)
}

func (r *AuditRepository) ListByVerb(_ context.Context, verb string, opts store.ListOptions) (store.ListResult[domain.AuditEntry], error) {
	return r.rows.find(opts, func(e *domain.AuditEntry) bool {
		return strings.EqualFold(e.Verb, verb)
	}), nil
}
