// Package populator implements the two population stages. The render stage
// pushes locally known values to the browser; the submission stage resolves
// validation-backed values server side and stages a single record write.
// Both stages return Effects instead of touching the host directly.
package populator

import (
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
)

// Annotation is a metadata change for one field.
type Annotation struct {
	ProjectID  string
	FieldName  string
	Annotation string
}

// Effects is everything a hook wants the host to do.
type Effects struct {
	// Write is nil when nothing was staged.
	Write *host.WriteRequest
	// Payload is nil when the page has no tagged fields.
	Payload *ClientPayload
	// Snippet is the HTML injected into the page for Payload.
	Snippet     string
	Annotations []Annotation
	Logs        []LogLine
}

// Empty reports whether the effects carry no host-visible action.
func (e Effects) Empty() bool {
	return e.Write == nil && e.Payload == nil && e.Snippet == "" && len(e.Annotations) == 0
}
