package zerobounce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

func TestValidateSendsParametersAndMaps(t *testing.T) {
	var gotKey, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/validate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.URL.Query().Get("api_key")
		gotEmail = r.URL.Query().Get("email")
		w.Write([]byte(`{"address":"test@example.com","status":"valid","sub_status":"","free_email":false,"did_you_mean":null,"account":"test","domain":"example.com","firstname":"Ada","lastname":"Lovelace","gender":"female","city":null,"region":null,"country":null}`))
	}))
	defer server.Close()

	adapter := New(&logger.Nop{}, WithBaseURL(server.URL))
	res := adapter.Validate(context.Background(), "key-1", "test@example.com", "")
	if res == nil {
		t.Fatalf("expected result")
	}
	if gotKey != "key-1" || gotEmail != "test@example.com" {
		t.Fatalf("unexpected query key=%s email=%s", gotKey, gotEmail)
	}
	cases := map[capabilities.DataOption]string{
		capabilities.OptionEmailStatus:     "valid",
		capabilities.OptionEmailSubStatus:  "",
		capabilities.OptionEmailFree:       "0",
		capabilities.OptionEmailDidYouMean: "",
		capabilities.OptionEmailFirstName:  "Ada",
		capabilities.OptionEmailLastName:   "Lovelace",
		capabilities.OptionEmailDomain:     "example.com",
	}
	for option, want := range cases {
		if got := MapValue(option, res); got != want {
			t.Fatalf("%s = %q, want %q", option, got, want)
		}
	}
	relay := Relay(res)
	if relay["first_name"] != "Ada" || relay["free_email"] != false || relay["status"] != "valid" {
		t.Fatalf("unexpected relay payload %v", relay)
	}
}

func TestMapValueAcceptsUnderscoredNames(t *testing.T) {
	res := adapters.Result{"first_name": "Grace", "last_name": "Hopper"}
	if MapValue(capabilities.OptionEmailFirstName, res) != "Grace" || MapValue(capabilities.OptionEmailLastName, res) != "Hopper" {
		t.Fatalf("expected underscored names to map")
	}
}

func TestValidateErrorFieldYieldsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Invalid API Key or your account ran out of credits"}`))
	}))
	defer server.Close()

	adapter := New(&logger.Nop{}, WithBaseURL(server.URL))
	if res := adapter.Validate(context.Background(), "bad", "a@b.co", ""); res != nil {
		t.Fatalf("expected nil, got %v", res)
	}
}

func TestValidateWithoutKeySkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := New(&logger.Nop{}, WithBaseURL(server.URL))
	if res := adapter.Validate(context.Background(), "", "a@b.co", ""); res != nil || called {
		t.Fatalf("expected no call without an api key")
	}
	if adapter.Configured() {
		t.Fatalf("expected adapter without default key to be unconfigured")
	}
}

func TestValidateTimeoutYieldsNil(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(done)

	adapter := New(&logger.Nop{}, WithBaseURL(server.URL), WithTimeout(50*time.Millisecond, 50*time.Millisecond))
	if res := adapter.Validate(context.Background(), "k", "a@b.co", ""); res != nil {
		t.Fatalf("expected nil on timeout")
	}
}

func TestCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getcredits" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") == "invalid" {
			w.Write([]byte(`{"Credits":"-1"}`))
			return
		}
		w.Write([]byte(`{"Credits":"2375"}`))
	}))
	defer server.Close()

	adapter := New(&logger.Nop{}, WithBaseURL(server.URL))
	if n, ok := adapter.Credits(context.Background(), "k"); !ok || n != 2375 {
		t.Fatalf("expected 2375 credits, got %d %v", n, ok)
	}
	if _, ok := adapter.Credits(context.Background(), "invalid"); ok {
		t.Fatalf("expected invalid key to report not ok")
	}
}
