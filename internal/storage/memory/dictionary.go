package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
)

// Dictionary is an in-memory field dictionary for one project. It serves as
// both the annotation index and the metadata mutator.
type Dictionary struct {
	ProjectID string

	mu     sync.RWMutex
	fields map[string]host.FieldMeta
	order  []string
}

func NewDictionary(projectID string, fields ...host.FieldMeta) *Dictionary {
	d := &Dictionary{ProjectID: projectID, fields: make(map[string]host.FieldMeta)}
	for _, f := range fields {
		d.Put(f)
	}
	return d
}

// Put adds or replaces a field definition.
func (d *Dictionary) Put(field host.FieldMeta) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if field.ElementType == "" {
		field.ElementType = "text"
	}
	if _, ok := d.fields[field.FieldName]; !ok {
		d.order = append(d.order, field.FieldName)
	}
	d.fields[field.FieldName] = field
}

// Field returns the definition of name.
func (d *Dictionary) Field(name string) (host.FieldMeta, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.fields[name]
	return f, ok
}

func (d *Dictionary) FieldsWithTag(_ context.Context, tag, instrument string) (map[string]host.FieldMeta, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := map[string]host.FieldMeta{}
	for _, name := range d.order {
		f := d.fields[name]
		if instrument != "" && f.Instrument != instrument {
			continue
		}
		if HasTag(f.Annotation, tag) {
			out[name] = f
		}
	}
	return out, nil
}

func (d *Dictionary) SetAnnotation(_ context.Context, projectID, fieldName, annotation string) error {
	if projectID != d.ProjectID {
		return host.ErrUnavailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.fields[fieldName]
	if !ok {
		return host.ErrUnavailable
	}
	f.Annotation = annotation
	d.fields[fieldName] = f
	return nil
}

// HasTag reports whether annotation carries tag as a whole token.
// "@SURVEY-IP" does not match "@SURVEY-IP-ENCRYPT".
func HasTag(annotation, tag string) bool {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, token := range strings.Fields(strings.ToUpper(annotation)) {
		if token == tag {
			return true
		}
		if strings.HasPrefix(token, tag) {
			switch token[len(tag)] {
			case '=', '(':
				return true
			}
		}
	}
	return false
}
