package options

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
	opts "github.com/goliatone/go-options"
)

// SettingScopeRef describes how stored settings map to a scope layer.
type SettingScopeRef struct {
	Scope     opts.Scope
	Kind      string
	SubjectID string
}

// SettingSnapshotStore adapts the setting repository to scope snapshots.
type SettingSnapshotStore struct {
	Repository store.SettingRepository
}

var errSettingRepositoryRequired = errors.New("options: setting repository is required")

// Load pulls the stored settings for each scope reference and converts them
// into snapshots that can be fed into the resolver. Scopes without rows are
// skipped.
func (s SettingSnapshotStore) Load(ctx context.Context, refs []SettingScopeRef) ([]Snapshot, error) {
	if s.Repository == nil {
		return nil, errSettingRepositoryRequired
	}
	snapshots := make([]Snapshot, 0, len(refs))
	for _, ref := range refs {
		if ref.Scope.Name == "" {
			return nil, fmt.Errorf("options: scope name required for %s/%s", ref.Kind, ref.SubjectID)
		}
		if strings.TrimSpace(ref.Kind) == "" {
			return nil, fmt.Errorf("options: scope %s missing setting kind", ref.Scope.Name)
		}
		rows, err := s.Repository.ListScope(ctx, ref.Kind, ref.SubjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		snapshots = append(snapshots, snapshotFromSettings(ref, rows))
	}
	return snapshots, nil
}

// Save upserts a single key for the provided scope reference.
func (s SettingSnapshotStore) Save(ctx context.Context, ref SettingScopeRef, key, value string) (*domain.Setting, error) {
	if s.Repository == nil {
		return nil, errSettingRepositoryRequired
	}
	if strings.TrimSpace(ref.Kind) == "" {
		return nil, fmt.Errorf("options: setting kind is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("options: setting key is required")
	}
	record := &domain.Setting{
		Scope:     ref.Kind,
		SubjectID: ref.SubjectID,
		Key:       strings.TrimSpace(key),
		Value:     value,
	}
	if err := s.Repository.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func snapshotFromSettings(ref SettingScopeRef, rows []domain.Setting) Snapshot {
	payload := make(map[string]any, len(rows))
	for _, row := range rows {
		payload[row.Key] = row.Value
	}
	return Snapshot{
		Scope:      ref.Scope,
		Data:       payload,
		SnapshotID: ref.Kind + ":" + ref.SubjectID,
	}
}
