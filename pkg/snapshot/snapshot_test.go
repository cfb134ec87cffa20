package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
)

type stubGeo struct {
	calls   int
	timeout time.Duration
	result  adapters.Result
}

func (s *stubGeo) Lookup(_ context.Context, ip string, timeout time.Duration) adapters.Result {
	s.calls++
	s.timeout = timeout
	return s.result
}

type countingLogger struct {
	logger.Nop
	warns, errors int
}

func (c *countingLogger) Warn(string, ...logger.Field)  { c.warns++ }
func (c *countingLogger) Error(string, ...logger.Field) { c.errors++ }

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestSnapshotContainsEveryOption(t *testing.T) {
	snap := NewBuilder(nil).Build(context.Background(), Request{}, nil)
	for _, option := range capabilities.Options() {
		if _, ok := snap[option]; !ok {
			t.Fatalf("option %s missing from snapshot", option)
		}
	}
	if len(snap) != len(capabilities.Options()) {
		t.Fatalf("snapshot has unexpected keys")
	}
}

func TestLookupUnknownOptionIsError(t *testing.T) {
	snap := New()
	if _, err := snap.Lookup("made-up"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	log := &countingLogger{}
	if v := Value(snap, "made-up", log); v != "" || log.errors != 1 {
		t.Fatalf("expected empty value and one error log, got %q / %d", v, log.errors)
	}
}

func TestBuildIdentityAndEncryption(t *testing.T) {
	snap := NewBuilder(nil).Build(context.Background(), Request{
		RemoteAddr:    "203.0.113.9:51234",
		UserAgent:     chromeUA,
		Referrer:      "https://example.org/survey",
		EncryptionKey: "k",
	}, nil)
	if snap[capabilities.OptionIPAddress] != "203.0.113.9" || snap[capabilities.OptionRemoteAddr] != "203.0.113.9" {
		t.Fatalf("unexpected ip values %q %q", snap[capabilities.OptionIPAddress], snap[capabilities.OptionRemoteAddr])
	}
	enc := snap[capabilities.OptionEncryptedIP]
	if !strings.HasSuffix(enc, "||v1") {
		t.Fatalf("expected default version suffix, got %q", enc)
	}
	c, _ := ipcrypt.New("k", "")
	if ip, _, err := c.DecryptString(enc); err != nil || ip != "203.0.113.9" {
		t.Fatalf("round trip failed: %q %v", ip, err)
	}
	if snap[capabilities.OptionBrowserName] != "Chrome" || snap[capabilities.OptionIsMobile] != "0" || snap[capabilities.OptionIsRobot] != "0" {
		t.Fatalf("unexpected ua values %v", snap)
	}
	if snap[capabilities.OptionReferrer] != "https://example.org/survey" {
		t.Fatalf("unexpected referrer")
	}
}

func TestBuildOverrideKeepsRemoteAddr(t *testing.T) {
	snap := NewBuilder(nil).Build(context.Background(), Request{IPOverride: "198.51.100.1", RemoteAddr: "10.0.0.2"}, nil)
	if snap[capabilities.OptionIPAddress] != "198.51.100.1" || snap[capabilities.OptionRemoteAddr] != "10.0.0.2" {
		t.Fatalf("unexpected override handling %v", snap)
	}
}

func TestBuildUnknownIPAndMissingKey(t *testing.T) {
	log := &countingLogger{}
	geo := &stubGeo{result: adapters.Result{"status": "success"}}
	snap := NewBuilder(geo).Build(context.Background(), Request{GeoEnabled: true}, log)
	if snap[capabilities.OptionIPAddress] != ipcrypt.Unknown {
		t.Fatalf("expected UNKNOWN sentinel, got %q", snap[capabilities.OptionIPAddress])
	}
	if snap[capabilities.OptionEncryptedIP] != "" || geo.calls != 0 {
		t.Fatalf("expected no encryption and no geolocation for unknown ip")
	}
	if log.errors != 1 {
		t.Fatalf("expected one error log, got %d", log.errors)
	}

	log = &countingLogger{}
	snap = NewBuilder(nil).Build(context.Background(), Request{RemoteAddr: "192.0.2.1"}, log)
	if snap[capabilities.OptionEncryptedIP] != "" || log.warns != 1 {
		t.Fatalf("expected warning and empty encrypted ip, got %q / %d", snap[capabilities.OptionEncryptedIP], log.warns)
	}
}

func TestBuildGeolocation(t *testing.T) {
	geo := &stubGeo{result: adapters.Result{"status": "success", "city": "Lisbon", "lat": 38.72, "proxy": true}}
	snap := NewBuilder(geo).Build(context.Background(), Request{RemoteAddr: "192.0.2.1", GeoEnabled: true, GeoTimeout: 5 * time.Second}, nil)
	if geo.calls != 1 || geo.timeout != 5*time.Second {
		t.Fatalf("expected one lookup with the configured timeout")
	}
	if snap[capabilities.OptionGeoCity] != "Lisbon" || snap[capabilities.OptionGeoLat] != "38.72" || snap[capabilities.OptionGeoProxy] != "1" {
		t.Fatalf("unexpected geolocation values %v", snap)
	}
	if snap[capabilities.OptionGeoZip] != "" {
		t.Fatalf("expected missing attribute to be empty")
	}
}

func TestGeolocationDisabledLeavesAttributesEmpty(t *testing.T) {
	geo := &stubGeo{result: adapters.Result{"status": "success", "city": "Lisbon"}}
	for _, addr := range []string{"192.0.2.1", "not-an-ip", ""} {
		snap := NewBuilder(geo).Build(context.Background(), Request{RemoteAddr: addr, GeoEnabled: false}, nil)
		for _, option := range capabilities.OptionsIn(capabilities.FamilyGeolocation) {
			if snap[option] != "" {
				t.Fatalf("%s expected empty with geolocation disabled, got %q", option, snap[option])
			}
		}
	}
	if geo.calls != 0 {
		t.Fatalf("expected no lookups, got %d", geo.calls)
	}
}

func TestGeolocationFailureLeavesAttributesEmpty(t *testing.T) {
	geo := &stubGeo{}
	snap := NewBuilder(geo).Build(context.Background(), Request{RemoteAddr: "192.0.2.1", GeoEnabled: true}, nil)
	for _, option := range capabilities.OptionsIn(capabilities.FamilyGeolocation) {
		if snap[option] != "" {
			t.Fatalf("%s expected empty after failed lookup", option)
		}
	}
}
