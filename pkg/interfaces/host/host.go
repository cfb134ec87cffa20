// Package host declares the narrow contracts the collector consumes from the
// survey platform. The platform owns hook dispatch, field metadata, record
// persistence and configuration storage; the collector only reads and writes
// through these interfaces.
package host

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by contract implementations that cannot serve a
// request in the current page context.
var ErrUnavailable = errors.New("host: unavailable")

// FieldMeta describes one field definition as exposed by the host data dictionary.
type FieldMeta struct {
	FieldName   string
	Instrument  string
	ElementType string
	Annotation  string
}

// AnnotationIndex finds fields whose annotation carries a given action tag.
// An empty instrument means all instruments of the project.
type AnnotationIndex interface {
	FieldsWithTag(ctx context.Context, tag, instrument string) (map[string]FieldMeta, error)
}

// RecordKey addresses one submitted record (instance) on the host.
type RecordKey struct {
	ProjectID      string
	RecordID       string
	EventID        string
	Instrument     string
	RepeatInstance int
}

// Repeating reports whether the key points to a repeat instance beyond the first.
func (k RecordKey) Repeating() bool {
	return k.RepeatInstance > 1
}

// RecordReader returns submitted field values for a record instance.
type RecordReader interface {
	ReadRecord(ctx context.Context, key RecordKey) (map[string]string, error)
}

// WriteRequest carries the field values staged for a single write.
type WriteRequest struct {
	Key    RecordKey
	Values map[string]string
}

// WriteResult reports per-field errors. Values the host already applied are
// not rolled back when Errors is non-empty.
type WriteResult struct {
	Written []string
	Errors  []string
}

// RecordWriter persists a field->value mapping for a record.
type RecordWriter interface {
	WriteRecord(ctx context.Context, req WriteRequest) (WriteResult, error)
}

// SettingsStore exposes project-scoped and deployment-scoped configuration.
type SettingsStore interface {
	ProjectSettings(ctx context.Context, projectID string) (map[string]string, error)
	SystemSettings(ctx context.Context) (map[string]string, error)
	SetProjectSetting(ctx context.Context, projectID, key, value string) error
}

// MetadataMutator updates render-time field annotations (visibility/editability).
type MetadataMutator interface {
	SetAnnotation(ctx context.Context, projectID, fieldName, annotation string) error
}

// Authorizer decides whether a caller may use privileged tools.
type Authorizer interface {
	AuthorizeAdmin(ctx context.Context, credential string) (actorID string, err error)
}
