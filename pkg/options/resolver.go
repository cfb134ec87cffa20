package options

import (
	"errors"
	"fmt"
	"strings"

	opts "github.com/goliatone/go-options"
	layering "github.com/goliatone/go-options/layering"
)

// Snapshot captures the settings one scope contributes.
type Snapshot struct {
	Scope      opts.Scope
	Data       map[string]any
	SnapshotID string
}

// Resolver merges scope snapshots with go-options and reports, per key,
// which scope supplied the effective value.
type Resolver struct {
	options *opts.Options[map[string]any]
	origin  map[string]string
}

// ErrNoSnapshots signals that at least one scope snapshot must be provided.
var ErrNoSnapshots = errors.New("options: at least one snapshot is required")

// NewResolver merges snapshots. They must be given lowest priority first,
// e.g. deployment before project, which is also the order origins are
// attributed in.
func NewResolver(snapshots ...Snapshot) (*Resolver, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	layers := make([]opts.Layer[map[string]any], 0, len(snapshots))
	origin := make(map[string]string)
	for _, snap := range snapshots {
		if snap.Scope.Name == "" {
			return nil, fmt.Errorf("options: snapshot scope name is required")
		}
		var layerOpts []opts.LayerOption[map[string]any]
		if snap.SnapshotID != "" {
			layerOpts = append(layerOpts, opts.WithSnapshotID[map[string]any](snap.SnapshotID))
		}
		payload := cloneMap(snap.Data)
		for key, value := range payload {
			if value != nil {
				origin[key] = snap.Scope.Name
			}
		}
		layers = append(layers, opts.NewLayer(snap.Scope, payload, layerOpts...))
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return &Resolver{options: merged, origin: origin}, nil
}

// Resolve fetches the value stored at path with its merge trace.
func (r *Resolver) Resolve(path string) (any, opts.Trace, error) {
	if r == nil || r.options == nil {
		return nil, opts.Trace{Path: path}, fmt.Errorf("options: resolver not initialised")
	}
	return r.options.ResolveWithTrace(path)
}

// String returns the effective value of key as trimmed text and the name of
// the scope that supplied it. Missing and blank values report ok=false.
func (r *Resolver) String(key string) (value, scope string, ok bool) {
	raw, _, err := r.Resolve(key)
	if err != nil || raw == nil {
		return "", "", false
	}
	value = strings.TrimSpace(fmt.Sprint(raw))
	if value == "" {
		return "", "", false
	}
	return value, r.origin[key], true
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	return layering.Clone(src)
}
