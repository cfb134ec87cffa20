package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/settings"
)

var (
	// ErrProjectRequired is returned when a command carries no project id.
	ErrProjectRequired = errors.New("commands: project id is required")
	// ErrFieldRequired is returned when a designation carries no field name.
	ErrFieldRequired = errors.New("commands: field name is required")
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	DesignateEmailField command.Commander[DesignateEmailField]
	DesignatePhoneField command.Commander[DesignatePhoneField]
	SetProjectSetting   command.Commander[SetProjectSetting]
}

type settingWriter interface {
	SetProjectSetting(ctx context.Context, projectID, key, value string) error
}

// Dependencies wires the settings store and audit hooks into the catalog.
type Dependencies struct {
	Settings settingWriter
	Activity activity.Hooks
	Logger   logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Settings == nil {
		return nil, errors.New("commands: settings store is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	designate := fieldDesignation{settings: deps.Settings, activity: deps.Activity, logger: deps.Logger}
	return &Catalog{
		DesignateEmailField: emailFieldCommand{designate},
		DesignatePhoneField: phoneFieldCommand{designate},
		SetProjectSetting:   settingCommand{settings: deps.Settings, logger: deps.Logger},
	}, nil
}

// DesignateEmailField names the field whose value is validated with ZeroBounce.
type DesignateEmailField struct {
	ProjectID string `json:"pid"`
	Field     string `json:"field"`
	ActorID   string `json:"actor_id,omitempty"`
}

// DesignatePhoneField names the field whose value is validated with Numverify.
type DesignatePhoneField struct {
	ProjectID string `json:"pid"`
	Field     string `json:"field"`
	ActorID   string `json:"actor_id,omitempty"`
}

// SetProjectSetting stores one project setting.
type SetProjectSetting struct {
	ProjectID string `json:"pid"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

type fieldDesignation struct {
	settings settingWriter
	activity activity.Hooks
	logger   logger.Logger
}

func (d fieldDesignation) run(ctx context.Context, key, projectID, field, actorID string) error {
	projectID = strings.TrimSpace(projectID)
	field = strings.TrimSpace(field)
	if projectID == "" {
		return ErrProjectRequired
	}
	if field == "" {
		return ErrFieldRequired
	}
	if err := d.settings.SetProjectSetting(ctx, projectID, key, field); err != nil {
		return fmt.Errorf("commands: save %s: %w", key, err)
	}
	d.logger.Info("commands: validation field designated",
		logger.Field{Key: "project_id", Value: projectID},
		logger.Field{Key: "setting", Value: key},
		logger.Field{Key: "field", Value: field},
	)
	d.activity.Notify(ctx, activity.Event{
		Verb:       activity.VerbFieldDesignated,
		ActorID:    actorID,
		ProjectID:  projectID,
		ObjectType: "setting",
		ObjectID:   key,
		Metadata:   map[string]any{"field": field},
	})
	return nil
}

type emailFieldCommand struct{ fieldDesignation }

func (c emailFieldCommand) Execute(ctx context.Context, msg DesignateEmailField) error {
	return c.run(ctx, settings.KeyZeroBounceEmailField, msg.ProjectID, msg.Field, msg.ActorID)
}

type phoneFieldCommand struct{ fieldDesignation }

func (c phoneFieldCommand) Execute(ctx context.Context, msg DesignatePhoneField) error {
	return c.run(ctx, settings.KeyNumverifyPhoneField, msg.ProjectID, msg.Field, msg.ActorID)
}

type settingCommand struct {
	settings settingWriter
	logger   logger.Logger
}

func (c settingCommand) Execute(ctx context.Context, msg SetProjectSetting) error {
	msg.ProjectID = strings.TrimSpace(msg.ProjectID)
	msg.Key = strings.TrimSpace(msg.Key)
	if msg.ProjectID == "" {
		return ErrProjectRequired
	}
	if !knownKey(msg.Key) {
		return fmt.Errorf("commands: unknown setting %q", msg.Key)
	}
	if settings.SystemOnly(msg.Key) {
		return fmt.Errorf("commands: %q is a deployment setting", msg.Key)
	}
	if err := c.settings.SetProjectSetting(ctx, msg.ProjectID, msg.Key, msg.Value); err != nil {
		return fmt.Errorf("commands: save %s: %w", msg.Key, err)
	}
	value := msg.Value
	if settings.Sensitive(msg.Key) {
		value = "[redacted]"
	}
	c.logger.Info("commands: project setting saved",
		logger.Field{Key: "project_id", Value: msg.ProjectID},
		logger.Field{Key: "setting", Value: msg.Key},
		logger.Field{Key: "value", Value: value},
	)
	return nil
}

func knownKey(key string) bool {
	for _, k := range settings.Keys() {
		if k == key {
			return true
		}
	}
	return false
}
