package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/options"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	opts "github.com/goliatone/go-options"
)

const (
	ScopeSystem  = "system"
	ScopeProject = "project"
	ScopeSecret  = "secret"
)

var (
	systemScope  = opts.NewScope(ScopeSystem, opts.ScopePrioritySystem, opts.WithScopeLabel("Deployment"))
	projectScope = opts.NewScope(ScopeProject, opts.ScopePriorityTenant, opts.WithScopeLabel("Project"))
)

// ErrStoreRequired is returned when no settings store is configured.
var ErrStoreRequired = errors.New("settings: store is required")

// secretIntegration maps credential keys to the integration owning them.
var secretIntegration = map[string]string{
	KeyEncryptionKey:    "ipcrypt",
	KeyZeroBounceAPIKey: "zerobounce",
	KeyNumverifyAPIKey:  "numverify",
}

// SecretIntegration reports the integration owning a vaultable credential key.
func SecretIntegration(key string) (string, bool) {
	integration, ok := secretIntegration[key]
	return integration, ok
}

// Resolver reads host settings and merges system and project layers.
type Resolver struct {
	store   host.SettingsStore
	secrets secrets.Resolver
	logger  logger.Logger
}

type Option func(*Resolver)

// WithSecrets lets credentials come from a secrets resolver.
func WithSecrets(r secrets.Resolver) Option {
	return func(res *Resolver) {
		res.secrets = r
	}
}

func WithLogger(l logger.Logger) Option {
	return func(res *Resolver) {
		if l != nil {
			res.logger = l
		}
	}
}

func NewResolver(store host.SettingsStore, opts ...Option) *Resolver {
	r := &Resolver{store: store, logger: &logger.Nop{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Store exposes the underlying settings store.
func (r *Resolver) Store() host.SettingsStore { return r.store }

// Resolve returns the effective settings of projectID.
func (r *Resolver) Resolve(ctx context.Context, projectID string) (Settings, error) {
	if r == nil || r.store == nil {
		return Settings{}, ErrStoreRequired
	}
	system, err := r.store.SystemSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: system scope: %w", err)
	}
	systemData := toAny(system)
	snapshots := []options.Snapshot{{Scope: systemScope, Data: systemData, SnapshotID: "system"}}
	var projectData map[string]any
	if strings.TrimSpace(projectID) != "" {
		project, err := r.store.ProjectSettings(ctx, projectID)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: project scope: %w", err)
		}
		projectData = toAny(project)
		snapshots = append(snapshots, options.Snapshot{Scope: projectScope, Data: projectData, SnapshotID: "project:" + projectID})
	}
	resolver, err := options.NewResolver(snapshots...)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: merge: %w", err)
	}

	values := make(map[string]string, len(Keys()))
	sources := make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		if SystemOnly(key) {
			if v, ok := systemData[key]; ok {
				values[key] = strings.TrimSpace(fmt.Sprint(v))
				sources[key] = ScopeSystem
			}
			continue
		}
		if value, scope, ok := resolver.String(key); ok {
			values[key] = value
			sources[key] = scope
		}
	}
	r.overlaySecrets(ctx, projectID, values, sources)

	return Settings{
		ProjectID:            projectID,
		EncryptionKey:        values[KeyEncryptionKey],
		EncryptionKeyVersion: values[KeyEncryptionKeyVersion],
		Enabled:              parseBool(values[KeyEnabled]),
		GeolocationEnabled:   parseBool(values[KeyEnableGeolocation]),
		GeolocationTimeout:   ParseTimeout(values[KeyGeolocationTimeout]),
		ZeroBounceAPIKey:     values[KeyZeroBounceAPIKey],
		ZeroBounceEmailField: values[KeyZeroBounceEmailField],
		NumverifyAPIKey:      values[KeyNumverifyAPIKey],
		NumverifyPhoneField:  values[KeyNumverifyPhoneField],
		DebugMode:            parseBool(values[KeyDebugMode]),
		DebugEditableIP:      parseBool(values[KeyDebugEditableIP]),
		Sources:              sources,
	}, nil
}

// SetProjectSetting writes key for projectID through the host store.
func (r *Resolver) SetProjectSetting(ctx context.Context, projectID, key, value string) error {
	if r == nil || r.store == nil {
		return ErrStoreRequired
	}
	return r.store.SetProjectSetting(ctx, projectID, key, value)
}

// overlaySecrets replaces credentials with vaulted values. The encryption key
// is deployment-wide; API keys prefer the project's entry over the
// deployment's.
func (r *Resolver) overlaySecrets(ctx context.Context, projectID string, values, sources map[string]string) {
	if r.secrets == nil {
		return
	}
	type candidates struct{ project, system secrets.Reference }
	wanted := make(map[string]candidates, len(secretIntegration))
	refs := make([]secrets.Reference, 0, 2*len(secretIntegration))
	for key, integration := range secretIntegration {
		c := candidates{system: secrets.SystemRef(integration, key)}
		refs = append(refs, c.system)
		if key != KeyEncryptionKey && projectID != "" {
			c.project = secrets.ProjectRef(projectID, integration, key)
			refs = append(refs, c.project)
		}
		wanted[key] = c
	}
	found, err := r.secrets.Resolve(ctx, refs...)
	if err != nil {
		r.logger.Warn("settings: secrets unavailable, using plain values",
			logger.Field{Key: "project_id", Value: projectID},
			logger.Field{Key: "error", Value: err},
		)
		return
	}
	if len(found) == 0 {
		return
	}
	r.logger.Debug("settings: vaulted credentials",
		logger.Field{Key: "project_id", Value: projectID},
		logger.Field{Key: "secrets", Value: secrets.MaskValues(found)},
	)
	for key, c := range wanted {
		val, ok := found[c.project]
		if !ok || c.project == (secrets.Reference{}) {
			val, ok = found[c.system]
		}
		if ok && len(val.Data) > 0 {
			values[key] = string(val.Data)
			sources[key] = ScopeSecret
		}
	}
}

func toAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
