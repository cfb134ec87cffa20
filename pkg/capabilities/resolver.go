package capabilities

import (
	"context"
	"sort"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// FieldBinding ties one form field to the data option that feeds it.
type FieldBinding struct {
	FieldName  string     `json:"field_name"`
	DataOption DataOption `json:"data_option"`
	Overwrite  bool       `json:"overwrite"`
	Defer      bool       `json:"defer,omitempty"`
}

// Resolve queries the annotation index for every tag, in order, and returns
// one binding per matching field. Unknown tags and index failures are logged
// and skipped; resolution never fails.
func Resolve(ctx context.Context, index host.AnnotationIndex, tags []Tag, instrument string, log logger.Logger) []FieldBinding {
	log = logger.OrNop(log)
	if index == nil {
		log.Error("capabilities: annotation index not configured")
		return nil
	}
	var out []FieldBinding
	for _, tag := range tags {
		option, ok := Lookup(tag)
		if !ok {
			log.Debug("capabilities: unknown tag skipped", logger.Field{Key: "tag", Value: string(tag)})
			continue
		}
		canonical, _ := TagFor(option)
		fields, err := index.FieldsWithTag(ctx, string(canonical), instrument)
		if err != nil {
			log.Error("capabilities: annotation lookup failed",
				logger.Field{Key: "tag", Value: string(canonical)},
				logger.Field{Key: "instrument", Value: instrument},
				logger.Field{Key: "error", Value: err},
			)
			continue
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, FieldBinding{
				FieldName:  name,
				DataOption: option,
				Overwrite:  true,
				Defer:      Deferred(option),
			})
		}
	}
	return out
}

// ResolveAll resolves every known tag.
func ResolveAll(ctx context.Context, index host.AnnotationIndex, instrument string, log logger.Logger) []FieldBinding {
	return Resolve(ctx, index, Tags(), instrument, log)
}

// TaggedField is a field carrying at least one known tag, together with the
// options bound to it.
type TaggedField struct {
	Meta    host.FieldMeta
	Options []DataOption
}

// Fields returns every tagged field across all instruments keyed by field name.
func Fields(ctx context.Context, index host.AnnotationIndex, log logger.Logger) map[string]TaggedField {
	log = logger.OrNop(log)
	out := map[string]TaggedField{}
	if index == nil {
		return out
	}
	for _, e := range table {
		fields, err := index.FieldsWithTag(ctx, string(e.tag), "")
		if err != nil {
			log.Error("capabilities: annotation lookup failed",
				logger.Field{Key: "tag", Value: string(e.tag)},
				logger.Field{Key: "error", Value: err},
			)
			continue
		}
		for name, meta := range fields {
			tf := out[name]
			tf.Meta = meta
			tf.Options = append(tf.Options, e.option)
			out[name] = tf
		}
	}
	return out
}

// Merge collapses bindings to one per field, keeping each field's first
// position and its last binding.
func Merge(bindings []FieldBinding) []FieldBinding {
	pos := make(map[string]int, len(bindings))
	out := make([]FieldBinding, 0, len(bindings))
	for _, b := range bindings {
		if i, ok := pos[b.FieldName]; ok {
			out[i] = b
			continue
		}
		pos[b.FieldName] = len(out)
		out = append(out, b)
	}
	return out
}
