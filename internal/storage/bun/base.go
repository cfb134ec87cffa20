package bunrepo

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

// table adapts a go-repository-bun repository to the store contracts for
// one RecordMeta-carrying model.
type table[T any] struct {
	repo repository.Repository[*T]
	meta func(*T) *domain.RecordMeta
	now  func() time.Time
}

func newTable[T any](db *bun.DB, meta func(*T) *domain.RecordMeta) table[T] {
	handlers := repository.ModelHandlers[*T]{
		NewRecord:          func() *T { return new(T) },
		GetID:              func(rec *T) uuid.UUID { return meta(rec).ID },
		SetID:              func(rec *T, id uuid.UUID) { meta(rec).ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(rec *T) string { return meta(rec).ID.String() },
	}
	return table[T]{
		repo: repository.MustNewRepository[*T](db, handlers),
		meta: meta,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (t table[T]) insert(ctx context.Context, record *T) error {
	t.meta(record).Touch(t.now())
	_, err := t.repo.Create(ctx, record)
	return mapError(err)
}

func (t table[T]) replace(ctx context.Context, record *T) error {
	if t.meta(record).ID == uuid.Nil {
		return store.ErrNotFound
	}
	t.meta(record).Touch(t.now())
	_, err := t.repo.Update(ctx, record)
	return mapError(err)
}

// first returns the single live record matching criteria.
func (t table[T]) first(ctx context.Context, criteria ...repository.SelectCriteria) (*T, error) {
	record, err := t.repo.Get(ctx, append(criteria, withoutDeleted())...)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (t table[T]) byID(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.first(ctx, withID(id))
}

// find pages through records matching criteria, oldest first.
func (t table[T]) find(ctx context.Context, opts store.ListOptions, criteria ...repository.SelectCriteria) (store.ListResult[T], error) {
	records, total, err := t.repo.List(ctx, append([]repository.SelectCriteria{withListOptions(opts)}, criteria...)...)
	if err != nil {
		return store.ListResult[T]{}, mapError(err)
	}
	return store.ListResult[T]{Items: deref(records), Total: total}, nil
}

// retire soft deletes id. Retiring an already retired record is a no-op.
func (t table[T]) retire(ctx context.Context, id uuid.UUID) error {
	record, err := t.repo.Get(ctx, withID(id))
	if err != nil {
		return mapError(err)
	}
	meta := t.meta(record)
	if !meta.DeletedAt.IsZero() {
		return nil
	}
	meta.DeletedAt = t.now()
	_, err = t.repo.Update(ctx, record)
	return mapError(err)
}

func deref[T any](records []*T) []T {
	out := make([]T, len(records))
	for i, rec := range records {
		out[i] = *rec
	}
	return out
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
