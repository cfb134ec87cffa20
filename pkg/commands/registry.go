package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-survey-collector/internal/commands"
	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// Re-export request types so consumers need not import internal packages.
type (
	DesignateEmailField = internalcommands.DesignateEmailField
	DesignatePhoneField = internalcommands.DesignatePhoneField
	SetProjectSetting   = internalcommands.SetProjectSetting
)

var (
	ErrProjectRequired = internalcommands.ErrProjectRequired
	ErrFieldRequired   = internalcommands.ErrFieldRequired
)

// Registry exposes go-command compatible handlers backed by the module services.
type Registry struct {
	Catalog             *internalcommands.Catalog
	DesignateEmailField command.Commander[DesignateEmailField]
	DesignatePhoneField command.Commander[DesignatePhoneField]
	SetProjectSetting   command.Commander[SetProjectSetting]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Settings host.SettingsStore
	Activity activity.Hooks
	Logger   logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	catalog, err := internalcommands.NewCatalog(internalcommands.Dependencies{
		Settings: deps.Settings,
		Activity: deps.Activity,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:             catalog,
		DesignateEmailField: catalog.DesignateEmailField,
		DesignatePhoneField: catalog.DesignatePhoneField,
		SetProjectSetting:   catalog.SetProjectSetting,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.DesignateEmailField,
		r.DesignatePhoneField,
		r.SetProjectSetting,
	}
}
