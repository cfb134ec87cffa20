package hooks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/internal/storage/memory"
	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/snapshot"
)

type stubGeo struct {
	calls int
	res   adapters.Result
}

func (g *stubGeo) Lookup(_ context.Context, _ string, _ time.Duration) adapters.Result {
	g.calls++
	return g.res
}

type stubRenderer struct {
	payloads []any
	err      error
}

func (r *stubRenderer) Snippet(payload any) (string, error) {
	r.payloads = append(r.payloads, payload)
	if r.err != nil {
		return "", r.err
	}
	return "<script>ok</script>", nil
}

type panicIndex struct{}

func (panicIndex) FieldsWithTag(context.Context, string, string) (map[string]host.FieldMeta, error) {
	panic("boom")
}

func text(name, annotation string) host.FieldMeta {
	return host.FieldMeta{FieldName: name, Instrument: "survey", ElementType: "text", Annotation: annotation}
}

func baseContext(index host.AnnotationIndex) HostContext {
	return HostContext{
		Key:        host.RecordKey{ProjectID: "7", RecordID: "r1", EventID: "ev", Instrument: "survey"},
		Index:      index,
		RemoteAddr: "203.0.113.5:5000",
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		RelayURL:   "/zerobounce/validate",
	}
}

func valueOf(t *testing.T, payload *populator.ClientPayload, field string) *string {
	t.Helper()
	for _, c := range payload.Configs {
		if c.FieldName == field {
			return c.Value
		}
	}
	t.Fatalf("field %s missing from payload", field)
	return nil
}

func TestPageTopWithoutTaggedFieldsInjectsNothing(t *testing.T) {
	renderer := &stubRenderer{}
	h := New(WithRenderer(renderer))
	eff := h.PageTop(context.Background(), baseContext(memory.NewDictionary("7", text("plain", ""))))
	if eff.Payload != nil || eff.Snippet != "" || len(renderer.payloads) != 0 {
		t.Fatalf("expected no injection, got %+v", eff)
	}
}

func TestPageTopBuildsPayloadAndSnippet(t *testing.T) {
	renderer := &stubRenderer{}
	h := New(WithRenderer(renderer))
	hc := baseContext(memory.NewDictionary("7",
		text("ip", "@SURVEY-IP"),
		text("browser", "@SURVEY-BROWSER"),
		text("zb", "@ZEROBOUNCE-STATUS"),
		text("email", ""),
	))
	hc.Settings = settings.Settings{ZeroBounceAPIKey: "k", ZeroBounceEmailField: "email"}

	eff := h.PageTop(context.Background(), hc)
	if eff.Payload == nil || eff.Snippet != "<script>ok</script>" {
		t.Fatalf("expected payload and snippet, got %+v", eff)
	}
	if v := valueOf(t, eff.Payload, "ip"); v == nil || *v != "203.0.113.5" {
		t.Fatalf("unexpected ip value %v", v)
	}
	if v := valueOf(t, eff.Payload, "browser"); v == nil || *v != "Chrome" {
		t.Fatalf("unexpected browser value %v", v)
	}
	if v := valueOf(t, eff.Payload, "zb"); v != nil {
		t.Fatalf("email family must be deferred")
	}
	relay := eff.Payload.ZeroBounce
	if !relay.Enabled || relay.EmailField != "email" || relay.PID != "7" || relay.AjaxURL != "/zerobounce/validate" {
		t.Fatalf("unexpected relay config %+v", relay)
	}
}

func TestPageTopSnippetFailureKeepsPayload(t *testing.T) {
	h := New(WithRenderer(&stubRenderer{err: errors.New("bad template")}))
	eff := h.PageTop(context.Background(), baseContext(memory.NewDictionary("7", text("ip", "@SURVEY-IP"))))
	if eff.Payload == nil || eff.Snippet != "" {
		t.Fatalf("expected payload without snippet")
	}
	if !hasLine(eff.Logs, logger.LevelError, "snippet rendering failed") {
		t.Fatalf("expected error line, got %+v", eff.Logs)
	}
}

func TestPageTopGeolocationDisabledSkipsLookup(t *testing.T) {
	geo := &stubGeo{res: adapters.Result{"status": "success", "country": "Canada"}}
	h := New(WithBuilder(snapshot.NewBuilder(geo)))
	index := memory.NewDictionary("7", text("ip", "@SURVEY-IP"), text("country", "@IPAPI-COUNTRY"))

	eff := h.PageTop(context.Background(), baseContext(index))
	if geo.calls != 0 {
		t.Fatalf("geolocation must not be called when disabled")
	}
	if v := valueOf(t, eff.Payload, "country"); v == nil || *v != "" {
		t.Fatalf("expected empty country, got %v", v)
	}
	if v := valueOf(t, eff.Payload, "ip"); *v != "203.0.113.5" {
		t.Fatalf("identity fields must still be populated")
	}

	hc := baseContext(index)
	hc.Settings.GeolocationEnabled = true
	hc.Settings.GeolocationTimeout = time.Second
	eff = h.PageTop(context.Background(), hc)
	if geo.calls != 1 || *valueOf(t, eff.Payload, "country") != "Canada" {
		t.Fatalf("expected geolocation lookup when enabled")
	}
}

func TestSurveyCompleteReadsRecordAndWrites(t *testing.T) {
	records := memory.NewRecords("ip", "email")
	hc := baseContext(memory.NewDictionary("7", text("ip", "@SURVEY-IP")))
	records.Seed(hc.Key, map[string]string{"email": "a@b.co"})
	hc.Reader = records

	eff := New().SurveyComplete(context.Background(), hc)
	if eff.Write == nil || eff.Write.Values["ip"] != "203.0.113.5" {
		t.Fatalf("unexpected write %+v", eff.Write)
	}

	out := Apply(context.Background(), eff, Sinks{Writer: records})
	if len(out.Written) != 1 || len(out.WriteErrors) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	stored, _ := records.ReadRecord(context.Background(), hc.Key)
	if stored["ip"] != "203.0.113.5" || stored["email"] != "a@b.co" {
		t.Fatalf("unexpected stored record %v", stored)
	}
}

func TestBeforeRenderFlags(t *testing.T) {
	index := memory.NewDictionary("7",
		text("ip", "@SURVEY-IP"),
		text("ref", "@SURVEY-REFERRER"),
		text("zb", "@ZEROBOUNCE-STATUS"),
		text("done", "@SURVEY-BROWSER @HIDDEN-SURVEY @READONLY"),
		host.FieldMeta{FieldName: "radio", Instrument: "survey", ElementType: "radio", Annotation: "@SURVEY-PLATFORM"},
	)
	h := New()

	eff := h.BeforeRender(context.Background(), baseContext(index))
	got := map[string]string{}
	for _, a := range eff.Annotations {
		got[a.FieldName] = a.Annotation
	}
	want := map[string]string{
		"ip":  "@SURVEY-IP @HIDDEN-SURVEY @READONLY",
		"ref": "@SURVEY-REFERRER @HIDDEN-SURVEY @READONLY",
		"zb":  "@ZEROBOUNCE-STATUS @READONLY",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected annotations %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %s: want %q got %q", k, v, got[k])
		}
	}
	if !hasLine(eff.Logs, logger.LevelWarn, "not a text field") {
		t.Fatalf("expected warning for non-text field")
	}

	hc := baseContext(index)
	hc.Settings.DebugEditableIP = true
	eff = h.BeforeRender(context.Background(), hc)
	for _, a := range eff.Annotations {
		if a.FieldName == "ip" {
			t.Fatalf("ip field must stay editable in debug mode")
		}
	}

	out := Apply(context.Background(), eff, Sinks{Mutator: index})
	if out.Annotated != 2 {
		t.Fatalf("expected two annotation updates, got %d", out.Annotated)
	}
	if f, _ := index.Field("zb"); f.Annotation != "@ZEROBOUNCE-STATUS @READONLY" {
		t.Fatalf("mutator not applied: %q", f.Annotation)
	}
}

func TestHooksRecoverFromPanics(t *testing.T) {
	h := New()
	hc := baseContext(panicIndex{})
	for name, run := range map[string]func(context.Context, HostContext) populator.Effects{
		"page_top":        h.PageTop,
		"survey_complete": h.SurveyComplete,
		"before_render":   h.BeforeRender,
	} {
		eff := run(context.Background(), hc)
		if !eff.Empty() {
			t.Fatalf("%s: expected empty effects after panic", name)
		}
		if !hasLine(eff.Logs, logger.LevelError, "recovered from panic") {
			t.Fatalf("%s: expected panic to be logged, got %+v", name, eff.Logs)
		}
	}
}

func TestApplyLogsPartialWriteErrors(t *testing.T) {
	records := memory.NewRecords("ip")
	var buf bytes.Buffer
	page := &bytes.Buffer{}
	eff := populator.Effects{
		Write: &host.WriteRequest{
			Key:    host.RecordKey{ProjectID: "7", RecordID: "r1"},
			Values: map[string]string{"ip": "192.0.2.1", "ghost": "x"},
		},
		Snippet: "<script></script>",
		Logs: []populator.LogLine{
			{Level: logger.LevelDebug, Message: "verbose"},
			{Level: logger.LevelInfo, Message: "kept"},
		},
	}

	out := Apply(context.Background(), eff, Sinks{
		Writer: records,
		Page:   page,
		Logger: logger.NewWithWriter(&buf, logger.LevelDebug),
	})
	if len(out.Written) != 1 || len(out.WriteErrors) != 1 || !out.Injected {
		t.Fatalf("unexpected outcome %+v", out)
	}
	stored, _ := records.ReadRecord(context.Background(), eff.Write.Key)
	if stored["ip"] != "192.0.2.1" {
		t.Fatalf("partial write must keep applied values")
	}
	logs := buf.String()
	if !strings.Contains(logs, `field "ghost" does not exist`) {
		t.Fatalf("expected full error detail in logs: %s", logs)
	}
	if strings.Contains(logs, "verbose") || !strings.Contains(logs, "kept") {
		t.Fatalf("debug lines must be dropped unless debug is set: %s", logs)
	}
	if page.String() != "<script></script>" {
		t.Fatalf("expected snippet on page, got %q", page.String())
	}
}

func hasLine(lines []populator.LogLine, level logger.Level, fragment string) bool {
	for _, l := range lines {
		if l.Level == level && strings.Contains(l.Message, fragment) {
			return true
		}
	}
	return false
}
