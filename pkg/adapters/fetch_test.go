package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

type captureLogger struct {
	logger.Nop
	errors []string
}

func (c *captureLogger) Error(msg string, fields ...logger.Field) {
	line := msg
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			line += " " + err.Error()
			continue
		}
		if s, ok := f.Value.(string); ok {
			line += " " + s
		}
	}
	c.errors = append(c.errors, line)
}

func TestFetchDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":40.7128,"proxy":false}`))
	}))
	defer server.Close()

	f := NewFetcher(&logger.Nop{}, nil)
	res := f.Fetch(context.Background(), Request{Integration: "test", URL: server.URL})
	if res == nil {
		t.Fatalf("expected result")
	}
	if res.Text("lat") != "40.7128" || res.Bool("proxy") != "0" || res.Text("missing") != "" {
		t.Fatalf("unexpected flattening %v", res)
	}
}

func TestFetchFailuresYieldNil(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		},
		"provider": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		},
	}
	for name, handler := range cases {
		server := httptest.NewServer(handler)
		log := &captureLogger{}
		f := NewFetcher(log, nil)
		res := f.Fetch(context.Background(), Request{
			Integration: "test",
			URL:         server.URL,
			Check: func(r Result) error {
				if r.Text("status") == "fail" {
					return errors.New(r.Text("message"))
				}
				return nil
			},
		})
		server.Close()
		if res != nil {
			t.Fatalf("%s: expected nil result, got %v", name, res)
		}
		if len(log.errors) != 1 {
			t.Fatalf("%s: expected one error log, got %v", name, log.errors)
		}
	}
}

func TestFetchTimeoutYieldsNil(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(ClientConfig{Timeout: 50 * time.Millisecond})
	f := NewFetcher(&logger.Nop{}, client)
	if res := f.Fetch(context.Background(), Request{Integration: "slow", URL: server.URL}); res != nil {
		t.Fatalf("expected nil on timeout")
	}
}

func TestTransportErrorsAreRedacted(t *testing.T) {
	log := &captureLogger{}
	f := NewFetcher(log, NewHTTPClient(ClientConfig{Timeout: 200 * time.Millisecond}))
	f.Fetch(context.Background(), Request{
		Integration: "test",
		URL:         "http://127.0.0.1:1/validate?api_key=supersecretvalue",
		Redact:      []string{"api_key"},
	})
	if len(log.errors) != 1 {
		t.Fatalf("expected one error log, got %v", log.errors)
	}
	if strings.Contains(log.errors[0], "supersecretvalue") {
		t.Fatalf("api key leaked into log: %s", log.errors[0])
	}
}

func TestResultBoolTriState(t *testing.T) {
	r := Result{"t": true, "f": false, "s": "true", "n": nil}
	if r.Bool("t") != "1" || r.Bool("f") != "0" || r.Bool("s") != "1" || r.Bool("n") != "" || r.Bool("missing") != "" {
		t.Fatalf("unexpected tri-state mapping")
	}
	var empty Result
	if empty.Text("x") != "" || empty.Bool("x") != "" {
		t.Fatalf("nil result must map to empty strings")
	}
}
