package collector

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-survey-collector/internal/storage/memory"
	"github.com/goliatone/go-survey-collector/pkg/config"
	"github.com/goliatone/go-survey-collector/pkg/hooks"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/storage"
)

func newModule(t *testing.T, zbURL string) (*Module, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.BaseURL = "https://surveys.example.org/collector/"
	cfg.Integrations.ZeroBounce.BaseURL = zbURL
	cfg.Integrations.ZeroBounce.CreditsURL = zbURL
	var out bytes.Buffer
	module, err := NewModule(ModuleOptions{
		Config:  cfg,
		Storage: storage.NewMemoryProviders(),
		Logger:  logger.NewWithWriter(&out, logger.LevelDebug),
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}

	ctx := context.Background()
	store, ok := module.Settings().Store().(*settings.RepositoryStore)
	if !ok {
		t.Fatalf("expected repository-backed settings store")
	}
	if err := store.SetSystemSetting(ctx, settings.KeyEncryptionKey, "deploy-key"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for k, v := range map[string]string{
		settings.KeyEnabled:              "1",
		settings.KeyZeroBounceAPIKey:     "zb-key",
		settings.KeyZeroBounceEmailField: "email",
	} {
		if err := store.SetProjectSetting(ctx, "12", k, v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return module, &out
}

func text(name, annotation string) host.FieldMeta {
	return host.FieldMeta{FieldName: name, Instrument: "survey", ElementType: "text", Annotation: annotation}
}

func TestModuleConstruction(t *testing.T) {
	module, err := NewModule(ModuleOptions{Logger: &logger.Nop{}})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if module.Commands() == nil || module.Settings() == nil || module.Handler() == nil {
		t.Fatalf("expected commands, settings and handler")
	}
	if module.Config().RateLimit.Max != 10 {
		t.Fatalf("expected default config, got %+v", module.Config().RateLimit)
	}
	if module.RelayURL() != "/zerobounce/validate" {
		t.Fatalf("unexpected relay url %q", module.RelayURL())
	}
}

func TestModulePageTopInjectsSnippet(t *testing.T) {
	module, _ := newModule(t, "http://127.0.0.1:1")
	index := memory.NewDictionary("12",
		text("ip_enc", "@SURVEY-IP-ENCRYPT"),
		text("zb", "@ZEROBOUNCE-STATUS"),
	)
	var page bytes.Buffer
	out := module.Run(context.Background(), PhasePageTop, Event{
		Key:        host.RecordKey{ProjectID: "12", RecordID: "1", Instrument: "survey"},
		Index:      index,
		RemoteAddr: "203.0.113.7:4000",
	}, hooks.Sinks{Page: &page})

	if !out.Injected {
		t.Fatalf("expected snippet injection, got %+v", out)
	}
	html := page.String()
	for _, want := range []string{
		"SurveyDataCollector = ",
		"https://surveys.example.org/collector/zerobounce/validate",
		"https://surveys.example.org/collector/assets/collector.js",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("snippet missing %q: %s", want, html)
		}
	}
	if strings.Contains(html, "203.0.113.7") {
		t.Fatalf("raw ip leaked into the page: %s", html)
	}
}

func TestModuleSurveyCompleteWritesValidatedValues(t *testing.T) {
	zb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "zb-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"address":"ada@example.org","status":"valid","sub_status":""}`))
	}))
	defer zb.Close()

	module, _ := newModule(t, zb.URL)
	index := memory.NewDictionary("12",
		text("ip_enc", "@SURVEY-IP-ENCRYPT"),
		text("zb", "@ZEROBOUNCE-STATUS"),
	)
	key := host.RecordKey{ProjectID: "12", RecordID: "1", Instrument: "survey"}
	records := memory.NewRecords("ip_enc", "zb", "email")
	records.Seed(key, map[string]string{"email": "ada@example.org"})

	out := module.Run(context.Background(), PhaseSurveyComplete, Event{
		Key:        key,
		Index:      index,
		Reader:     records,
		RemoteAddr: "203.0.113.7:4000",
	}, hooks.Sinks{Writer: records})
	if len(out.Written) != 2 || len(out.WriteErrors) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	stored, _ := records.ReadRecord(context.Background(), key)
	if stored["zb"] != "valid" {
		t.Fatalf("expected zb status, got %v", stored)
	}
	c, _ := ipcrypt.New("deploy-key", "")
	ip, _, err := c.DecryptString(stored["ip_enc"])
	if err != nil || ip != "203.0.113.7" {
		t.Fatalf("expected decryptable ip, got %q (%v)", ip, err)
	}
}

func TestModuleUnknownPhaseLogsWarning(t *testing.T) {
	module, _ := newModule(t, "http://127.0.0.1:1")
	eff := module.Effects(context.Background(), Phase("form_save"), Event{Key: host.RecordKey{ProjectID: "12"}})
	if !eff.Empty() || len(eff.Logs) != 1 || eff.Logs[0].Level != logger.LevelWarn {
		t.Fatalf("expected a single warning, got %+v", eff)
	}
}
