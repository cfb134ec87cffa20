package options

import (
	"testing"

	opts "github.com/goliatone/go-options"
)

var (
	testSystem  = opts.NewScope("system", opts.ScopePrioritySystem, opts.WithScopeLabel("Deployment"))
	testProject = opts.NewScope("project", opts.ScopePriorityTenant, opts.WithScopeLabel("Project"))
)

func TestResolverProjectOverridesDeployment(t *testing.T) {
	resolver, err := NewResolver(
		Snapshot{Scope: testSystem, SnapshotID: "system", Data: map[string]any{
			"enabled":             "0",
			"geolocation-timeout": "3",
		}},
		Snapshot{Scope: testProject, SnapshotID: "project:12", Data: map[string]any{
			"enabled":                "1",
			"zerobounce-email-field": " email ",
		}},
	)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	cases := []struct {
		key, value, scope string
	}{
		{"enabled", "1", "project"},
		{"geolocation-timeout", "3", "system"},
		{"zerobounce-email-field", "email", "project"},
	}
	for _, tc := range cases {
		value, scope, ok := resolver.String(tc.key)
		if !ok || value != tc.value || scope != tc.scope {
			t.Fatalf("%s: got %q from %q (ok=%v), want %q from %q", tc.key, value, scope, ok, tc.value, tc.scope)
		}
	}

	if _, _, ok := resolver.String("numverify-api-key"); ok {
		t.Fatalf("expected missing key to report ok=false")
	}

	_, trace, err := resolver.Resolve("enabled")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if trace.Path != "enabled" || len(trace.Layers) != 2 {
		t.Fatalf("unexpected trace contents: %+v", trace)
	}
}

func TestNewResolverValidation(t *testing.T) {
	if _, err := NewResolver(); err != ErrNoSnapshots {
		t.Fatalf("expected ErrNoSnapshots, got %v", err)
	}
	if _, err := NewResolver(Snapshot{Scope: opts.Scope{}, Data: map[string]any{}}); err == nil {
		t.Fatalf("expected error for missing scope name")
	}
}
