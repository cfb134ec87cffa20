package hooks

import (
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
)

const (
	FlagHidden   = "@HIDDEN-SURVEY"
	FlagReadonly = "@READONLY"
)

// BeforeRender hides tagged fields and makes them read-only. Email family
// fields stay visible so the browser can fill them after validation; IP
// fields stay editable in debug-editable-ip mode.
func (h *Hooks) BeforeRender(ctx context.Context, hc HostContext) (eff populator.Effects) {
	rec := populator.NewRecorder()
	log := rec.With(logger.Field{Key: "project_id", Value: hc.Key.ProjectID})
	defer recoverInto("before_render", rec, &eff)

	fields := capabilities.Fields(ctx, hc.Index, log)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := fields[name]
		if field.Meta.ElementType != "" && field.Meta.ElementType != "text" {
			log.Warn("hooks: tagged field is not a text field",
				logger.Field{Key: "field", Value: name},
				logger.Field{Key: "type", Value: field.Meta.ElementType},
			)
			continue
		}
		updated := withFlags(field.Meta.Annotation, flagsFor(field.Options, hc.Settings.DebugEditableIP)...)
		if updated == field.Meta.Annotation {
			continue
		}
		eff.Annotations = append(eff.Annotations, populator.Annotation{
			ProjectID:  hc.Key.ProjectID,
			FieldName:  name,
			Annotation: updated,
		})
	}
	eff.Logs = rec.Lines()
	return eff
}

func flagsFor(options []capabilities.DataOption, editableIP bool) []string {
	ip := false
	for _, o := range options {
		if capabilities.FamilyOf(o) == capabilities.FamilyEmail {
			return []string{FlagReadonly}
		}
		if o == capabilities.OptionIPAddress {
			ip = true
		}
	}
	if ip && editableIP {
		return nil
	}
	return []string{FlagHidden, FlagReadonly}
}

func withFlags(annotation string, flags ...string) string {
	out := annotation
	for _, flag := range flags {
		if hasToken(out, flag) {
			continue
		}
		out += " " + flag
	}
	if out == annotation {
		return annotation
	}
	return strings.TrimSpace(out)
}

func hasToken(annotation, token string) bool {
	for _, t := range strings.Fields(strings.ToUpper(annotation)) {
		if t == token {
			return true
		}
	}
	return false
}
