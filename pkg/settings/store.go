package settings

import (
	"context"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
	"github.com/goliatone/go-survey-collector/pkg/options"
)

// RepositoryStore implements host.SettingsStore on top of a setting
// repository (memory or bun). It backs the standalone server and tests;
// embedded deployments pass the host's own store instead.
type RepositoryStore struct {
	snapshots options.SettingSnapshotStore
}

var _ host.SettingsStore = (*RepositoryStore)(nil)

func NewRepositoryStore(repo store.SettingRepository) *RepositoryStore {
	return &RepositoryStore{snapshots: options.SettingSnapshotStore{Repository: repo}}
}

func (s *RepositoryStore) ProjectSettings(ctx context.Context, projectID string) (map[string]string, error) {
	return s.load(ctx, options.SettingScopeRef{Scope: projectScope, Kind: domain.SettingScopeProject, SubjectID: projectID})
}

func (s *RepositoryStore) SystemSettings(ctx context.Context) (map[string]string, error) {
	return s.load(ctx, options.SettingScopeRef{Scope: systemScope, Kind: domain.SettingScopeSystem, SubjectID: domain.SystemSubjectID})
}

func (s *RepositoryStore) SetProjectSetting(ctx context.Context, projectID, key, value string) error {
	_, err := s.snapshots.Save(ctx, options.SettingScopeRef{Scope: projectScope, Kind: domain.SettingScopeProject, SubjectID: projectID}, key, value)
	return err
}

// SetSystemSetting writes a deployment-wide key.
func (s *RepositoryStore) SetSystemSetting(ctx context.Context, key, value string) error {
	_, err := s.snapshots.Save(ctx, options.SettingScopeRef{Scope: systemScope, Kind: domain.SettingScopeSystem, SubjectID: domain.SystemSubjectID}, key, value)
	return err
}

func (s *RepositoryStore) load(ctx context.Context, ref options.SettingScopeRef) (map[string]string, error) {
	snaps, err := s.snapshots.Load(ctx, []options.SettingScopeRef{ref})
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, snap := range snaps {
		for k, v := range snap.Data {
			if str, ok := v.(string); ok {
				out[k] = strings.TrimSpace(str)
			}
		}
	}
	return out, nil
}
