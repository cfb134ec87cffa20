package secrets

import (
	"strings"
	"testing"
)

func TestMaskValuesMasksSecretsAndPreservesVersion(t *testing.T) {
	ref := ProjectRef("12", "zerobounce", "zerobounce-api-key")
	refWithoutKey := Reference{Scope: ScopeSystem, SubjectID: SystemSubject, Integration: "ipcrypt"}

	values := map[Reference]SecretValue{
		ref:           {Data: []byte("supersecretvalue"), Version: "v1"},
		refWithoutKey: {Data: []byte("abcd1234"), Version: "v2"},
	}

	masked := MaskValues(values)
	if len(masked) != 2 {
		t.Fatalf("expected 2 masked entries, got %d", len(masked))
	}

	entry, ok := masked["zerobounce-api-key"].(map[string]any)
	if !ok {
		t.Fatalf("expected api key entry to be present")
	}
	if entry["version"] != "v1" {
		t.Fatalf("expected version v1, got %v", entry["version"])
	}
	if maskedValue, _ := entry["value"].(string); strings.Contains(maskedValue, "supersecretvalue") {
		t.Fatalf("expected api key value to be masked, got %s", maskedValue)
	}

	integrationEntry, ok := masked["ipcrypt"].(map[string]any)
	if !ok {
		t.Fatalf("expected integration fallback key to be present")
	}
	if maskedValue, _ := integrationEntry["value"].(string); maskedValue == "abcd1234" {
		t.Fatalf("expected integration entry to be masked")
	}
}

func TestMaskValuesEmptyInput(t *testing.T) {
	if out := MaskValues(nil); out != nil {
		t.Fatalf("expected nil output for nil input, got %v", out)
	}
}

func TestMaskHidesMiddle(t *testing.T) {
	got := Mask("test@example.com")
	if got == "test@example.com" || !strings.HasPrefix(got, "te") || !strings.HasSuffix(got, "om") {
		t.Fatalf("unexpected mask %q", got)
	}
	if Mask("") != "" {
		t.Fatalf("expected empty mask for empty input")
	}
}
