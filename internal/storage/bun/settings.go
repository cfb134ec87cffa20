package bunrepo

import (
	"context"
	"errors"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

// SettingRepository stores system and project settings.
type SettingRepository struct {
	rows table[domain.Setting]
}

var _ store.SettingRepository = (*SettingRepository)(nil)

func NewSettingRepository(db *bun.DB) *SettingRepository {
	return &SettingRepository{
		rows: newTable(db, func(s *domain.Setting) *domain.RecordMeta { return &s.RecordMeta }),
	}
}

func (r *SettingRepository) Create(ctx context.Context, setting *domain.Setting) error {
	return r.rows.insert(ctx, setting)
}

func (r *SettingRepository) Update(ctx context.Context, setting *domain.Setting) error {
	return r.rows.replace(ctx, setting)
}

func (r *SettingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Setting, error) {
	return r.rows.byID(ctx, id)
}

func (r *SettingRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Setting], error) {
	return r.rows.find(ctx, opts)
}

func (r *SettingRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.rows.retire(ctx, id)
}

func (r *SettingRepository) Get(ctx context.Context, scope, subjectID, key string) (*domain.Setting, error) {
	return r.rows.first(ctx, withScope(scope, subjectID), withKey(key))
}

func (r *SettingRepository) ListScope(ctx context.Context, scope, subjectID string) ([]domain.Setting, error) {
	records, _, err := r.rows.repo.List(ctx,
		withScope(scope, subjectID),
		withoutDeleted(),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("key ASC")
		},
	)
	if err != nil {
		return nil, mapError(err)
	}
	return deref(records), nil
}

// Upsert updates the value of an existing (scope, subject, key) entry or
// creates it.
func (r *SettingRepository) Upsert(ctx context.Context, setting *domain.Setting) error {
	existing, err := r.Get(ctx, setting.Scope, setting.SubjectID, setting.Key)
	if errors.Is(err, store.ErrNotFound) {
		return r.Create(ctx, setting)
	}
	if err != nil {
		return err
	}
	existing.Value = setting.Value
	if err := r.rows.replace(ctx, existing); err != nil {
		return err
	}
	*setting = *existing
	return nil
}

func withScope(scope, subjectID string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(scope) = ?", strings.ToLower(scope)).
			Where("subject_id = ?", subjectID)
	}
}

func withKey(key string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ?", key)
	}
}
