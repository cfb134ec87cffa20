package secrets

import (
	"context"
	"time"
)

// Scope defines the ownership boundary for a secret.
type Scope string

const (
	ScopeSystem  Scope = "system"
	ScopeProject Scope = "project"
)

// SystemSubject is the subject id used for deployment-wide secrets.
const SystemSubject = "deployment"

// Reference identifies a specific secret, e.g. the ZeroBounce API key of a
// project. An empty Version means the latest stored version.
type Reference struct {
	Scope       Scope
	SubjectID   string
	Integration string
	Key         string
	Version     string
}

// SystemRef builds a deployment-wide reference.
func SystemRef(integration, key string) Reference {
	return Reference{Scope: ScopeSystem, SubjectID: SystemSubject, Integration: integration, Key: key}
}

// ProjectRef builds a project-scoped reference.
func ProjectRef(projectID, integration, key string) Reference {
	return Reference{Scope: ScopeProject, SubjectID: projectID, Integration: integration, Key: key}
}

// latest drops the version so cache entries track the newest value.
func (r Reference) latest() Reference {
	r.Version = ""
	return r
}

// SecretValue carries the resolved secret payload.
type SecretValue struct {
	Data      []byte
	Version   string
	Retrieved time.Time
}

// Provider reads and writes secret values.
type Provider interface {
	Get(ctx context.Context, ref Reference) (SecretValue, error)
	Put(ctx context.Context, ref Reference, value []byte) (string, error)
	Delete(ctx context.Context, ref Reference) error
}

// Resolver resolves a batch of references. References without a stored
// value are omitted from the result rather than failing the batch.
type Resolver interface {
	Resolve(ctx context.Context, refs ...Reference) (map[Reference]SecretValue, error)
}

// Lookup resolves a single reference to its string value.
func Lookup(ctx context.Context, r Resolver, ref Reference) (string, bool) {
	if r == nil {
		return "", false
	}
	vals, err := r.Resolve(ctx, ref)
	if err != nil {
		return "", false
	}
	val, ok := vals[ref]
	if !ok || len(val.Data) == 0 {
		return "", false
	}
	return string(val.Data), true
}
