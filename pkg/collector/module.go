// Package collector is the public entry point: it builds the container and
// maps host events onto the hooks with resolved project settings.
package collector

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-survey-collector/internal/di"
	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/commands"
	"github.com/goliatone/go-survey-collector/pkg/config"
	"github.com/goliatone/go-survey-collector/pkg/hooks"
	"github.com/goliatone/go-survey-collector/pkg/httpapi"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/storage"
)

// ModuleOptions configure the collector module facade.
type ModuleOptions struct {
	Config     config.Config
	Storage    storage.Providers
	Logger     logger.Logger
	Settings   host.SettingsStore
	Secrets    secrets.Resolver
	Sessions   httpapi.SessionStore
	Authorizer host.Authorizer
	Activity   []activity.Hook
}

// Phase names a host event.
type Phase string

const (
	PhaseBeforeRender   Phase = "before_render"
	PhasePageTop        Phase = "page_top"
	PhaseSurveyComplete Phase = "survey_complete"
)

// Event is what the host passes when it fires a hook.
type Event struct {
	Key    host.RecordKey
	Index  host.AnnotationIndex
	Record map[string]string
	Reader host.RecordReader
	// RemoteAddr is the client address, with or without port.
	RemoteAddr string
	UserAgent  string
	Referrer   string
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles storage, integrations, hooks, commands and the server.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:     opts.Config,
		Storage:    opts.Storage,
		Logger:     opts.Logger,
		Settings:   opts.Settings,
		Secrets:    opts.Secrets,
		Sessions:   opts.Sessions,
		Authorizer: opts.Authorizer,
		Activity:   opts.Activity,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Effects runs one hook and returns what the host should do. Settings
// failures yield empty effects carrying the error line.
func (m *Module) Effects(ctx context.Context, phase Phase, ev Event) populator.Effects {
	hc, err := m.hostContext(ctx, ev)
	if err != nil {
		rec := populator.NewRecorder()
		rec.Error("collector: settings unavailable",
			logger.Field{Key: "project_id", Value: ev.Key.ProjectID},
			logger.Field{Key: "error", Value: err},
		)
		return populator.Effects{Logs: rec.Lines()}
	}
	h := m.container.Hooks
	switch phase {
	case PhaseBeforeRender:
		return h.BeforeRender(ctx, hc)
	case PhasePageTop:
		return h.PageTop(ctx, hc)
	case PhaseSurveyComplete:
		return h.SurveyComplete(ctx, hc)
	}
	rec := populator.NewRecorder()
	rec.Warn("collector: unknown phase", logger.Field{Key: "phase", Value: string(phase)})
	return populator.Effects{Logs: rec.Lines()}
}

// Run executes a hook and applies its effects through sinks. Log lines are
// replayed to the module logger when sinks carries none; debug lines follow
// the project's debug-mode setting.
func (m *Module) Run(ctx context.Context, phase Phase, ev Event, sinks hooks.Sinks) hooks.Outcome {
	eff := m.Effects(ctx, phase, ev)
	if sinks.Logger == nil {
		sinks.Logger = m.container.Logger
	}
	if cfg, err := m.container.Settings.Resolve(ctx, ev.Key.ProjectID); err == nil {
		sinks.Debug = sinks.Debug || cfg.DebugMode
	}
	return hooks.Apply(ctx, eff, sinks)
}

func (m *Module) hostContext(ctx context.Context, ev Event) (hooks.HostContext, error) {
	cfg, err := m.container.Settings.Resolve(ctx, ev.Key.ProjectID)
	if err != nil {
		return hooks.HostContext{}, err
	}
	return hooks.HostContext{
		Key:        ev.Key,
		Settings:   cfg,
		Index:      ev.Index,
		Record:     ev.Record,
		Reader:     ev.Reader,
		RemoteAddr: ev.RemoteAddr,
		UserAgent:  ev.UserAgent,
		Referrer:   ev.Referrer,
		RelayURL:   m.RelayURL(),
	}, nil
}

// RelayURL is the email validation endpoint handed to the browser.
func (m *Module) RelayURL() string {
	return strings.TrimRight(m.container.Config.Server.BaseURL, "/") + httpapi.PathRelay
}

// Handler returns the HTTP handler serving relay, admin and asset routes.
func (m *Module) Handler() http.Handler {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Server.Handler()
}

// Settings returns the layered settings resolver.
func (m *Module) Settings() *settings.Resolver {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Settings
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}
