package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

// SettingRepository keeps scoped settings in memory. Scope matching is
// case-insensitive like the SQL repository.
type SettingRepository struct {
	rows *table[domain.Setting]
}

var _ store.SettingRepository = (*SettingRepository)(nil)

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{
		rows: newTable(func(s *domain.Setting) *domain.RecordMeta { return &s.RecordMeta }),
	}
}

func scoped(scope, subjectID string) func(*domain.Setting) bool {
	return func(s *domain.Setting) bool {
		return strings.EqualFold(s.Scope, scope) && s.SubjectID == subjectID
	}
}

func (r *SettingRepository) Create(_ context.Context, setting *domain.Setting) error {
	r.rows.insert(setting)
	return nil
}

func (r *SettingRepository) Update(_ context.Context, setting *domain.Setting) error {
	return r.rows.replace(setting)
}

func (r *SettingRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Setting, error) {
	return r.rows.get(id)
}

func (r *SettingRepository) List(_ context.Context, opts store.ListOptions) (store.ListResult[domain.Setting], error) {
	return r.rows.find(opts, nil), nil
}

func (r *SettingRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.rows.retire(id)
}

func (r *SettingRepository) Get(_ context.Context, scope, subjectID, key string) (*domain.Setting, error) {
	in := scoped(scope, subjectID)
	return r.rows.first(func(s *domain.Setting) bool { return in(s) && s.Key == key })
}

func (r *SettingRepository) ListScope(_ context.Context, scope, subjectID string) ([]domain.Setting, error) {
	out := r.rows.find(store.ListOptions{}, scoped(scope, subjectID)).Items
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Upsert runs under the table lock so concurrent writers of one key
// cannot both create it.
func (r *SettingRepository) Upsert(_ context.Context, setting *domain.Setting) error {
	r.rows.mu.Lock()
	defer r.rows.mu.Unlock()
	in := scoped(setting.Scope, setting.SubjectID)
	for _, id := range r.rows.order {
		existing := r.rows.rows[id]
		if existing.DeletedAt.IsZero() && in(&existing) && existing.Key == setting.Key {
			existing.Value = setting.Value
			existing.Touch(r.rows.now())
			r.rows.rows[id] = existing
			*setting = existing
			return nil
		}
	}
	r.rows.insertLocked(setting)
	return nil
}
