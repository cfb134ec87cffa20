// Package zerobounce validates email addresses with the ZeroBounce v2 API.
package zerobounce

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// ErrAPIKeyRequired is returned when neither the call nor the config carries a key.
var ErrAPIKeyRequired = errors.New("zerobounce: api key required")

// Adapter calls ZeroBounce with TLS verification enforced.
type Adapter struct {
	name    string
	base    adapters.BaseAdapter
	caps    adapters.Capability
	cfg     Config
	client  *http.Client
	fetcher *adapters.Fetcher
}

type Option func(*Adapter)

// Config holds ZeroBounce endpoints and call budget. APIKey is an optional
// default used when a call does not supply a project key.
type Config struct {
	APIKey         string
	BaseURL        string
	CreditsURL     string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		if cfg.APIKey != "" {
			a.cfg.APIKey = cfg.APIKey
		}
		if strings.TrimSpace(cfg.BaseURL) != "" {
			a.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if strings.TrimSpace(cfg.CreditsURL) != "" {
			a.cfg.CreditsURL = strings.TrimRight(cfg.CreditsURL, "/")
		}
		if cfg.Timeout > 0 {
			a.cfg.Timeout = cfg.Timeout
		}
		if cfg.ConnectTimeout > 0 {
			a.cfg.ConnectTimeout = cfg.ConnectTimeout
		}
	}
}

func WithAPIKey(key string) Option {
	return func(a *Adapter) {
		a.cfg.APIKey = key
	}
}

// WithBaseURL points both the validate and credits endpoints at u.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(u) != "" {
			a.cfg.BaseURL = strings.TrimRight(u, "/")
			a.cfg.CreditsURL = a.cfg.BaseURL
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

func WithTimeout(total, connect time.Duration) Option {
	return func(a *Adapter) {
		if total > 0 {
			a.cfg.Timeout = total
		}
		if connect > 0 {
			a.cfg.ConnectTimeout = connect
		}
	}
}

func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "zerobounce",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "zerobounce",
			Families: []string{string(capabilities.FamilyEmail)},
		},
		cfg: Config{
			BaseURL:        "https://api.zerobounce.net/v2",
			CreditsURL:     "https://api-us.zerobounce.net/v2",
			Timeout:        10 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.client == nil {
		adapter.client = adapters.NewHTTPClient(adapters.ClientConfig{
			Timeout:        adapter.cfg.Timeout,
			ConnectTimeout: adapter.cfg.ConnectTimeout,
		})
	}
	adapter.fetcher = adapters.NewFetcher(adapter.base.Logger(), adapter.client)
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Configured reports whether a default API key is set.
func (a *Adapter) Configured() bool { return strings.TrimSpace(a.cfg.APIKey) != "" }

func (a *Adapter) key(apiKey string) string {
	if strings.TrimSpace(apiKey) != "" {
		return strings.TrimSpace(apiKey)
	}
	return strings.TrimSpace(a.cfg.APIKey)
}

// Validate checks email. ipAddress is optional. Any failure, including a
// response carrying an "error" field, returns nil.
func (a *Adapter) Validate(ctx context.Context, apiKey, email, ipAddress string) adapters.Result {
	key := a.key(apiKey)
	if key == "" {
		a.base.Logger().Warn("zerobounce: validation skipped", logger.Field{Key: "error", Value: ErrAPIKeyRequired})
		return nil
	}
	if strings.TrimSpace(email) == "" {
		return nil
	}
	q := url.Values{}
	q.Set("api_key", key)
	q.Set("email", strings.TrimSpace(email))
	q.Set("ip_address", strings.TrimSpace(ipAddress))
	return a.fetcher.Fetch(ctx, adapters.Request{
		Integration: a.name,
		URL:         a.cfg.BaseURL + "/validate?" + q.Encode(),
		Redact:      []string{"api_key", "email"},
		Check:       checkError,
	})
}

// Credits returns the remaining credit balance for apiKey. ok is false when
// the call fails or ZeroBounce reports an invalid key (-1).
func (a *Adapter) Credits(ctx context.Context, apiKey string) (int, bool) {
	key := a.key(apiKey)
	if key == "" {
		return 0, false
	}
	q := url.Values{}
	q.Set("api_key", key)
	res := a.fetcher.Fetch(ctx, adapters.Request{
		Integration: a.name + "_credits",
		URL:         a.cfg.CreditsURL + "/getcredits?" + q.Encode(),
		Redact:      []string{"api_key"},
		Check:       checkError,
	})
	raw := res.Text("Credits")
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return int(n), true
}

func checkError(r adapters.Result) error {
	if msg := r.Text("error"); strings.TrimSpace(msg) != "" {
		return errors.New(msg)
	}
	return nil
}

// ResponseKeys lists the fields relayed to the browser after validation.
var ResponseKeys = []string{
	"status", "sub_status", "account", "domain", "did_you_mean", "free_email",
	"first_name", "last_name", "gender", "city", "region", "country",
}

// Relay reduces a validation result to the fields exposed to the browser.
// Name fields are normalised to first_name/last_name.
func Relay(r adapters.Result) map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(ResponseKeys))
	for _, k := range ResponseKeys {
		switch k {
		case "first_name":
			out[k] = r.First("first_name", "firstname")
		case "last_name":
			out[k] = r.First("last_name", "lastname")
		case "free_email":
			v, ok := r[k].(bool)
			if ok {
				out[k] = v
			} else {
				out[k] = r.Bool(k) == "1"
			}
		default:
			out[k] = r.Text(k)
		}
	}
	return out
}

var fieldFor = map[capabilities.DataOption][]string{
	capabilities.OptionEmailStatus:     {"status"},
	capabilities.OptionEmailSubStatus:  {"sub_status"},
	capabilities.OptionEmailFree:       {"free_email"},
	capabilities.OptionEmailDidYouMean: {"did_you_mean"},
	capabilities.OptionEmailAccount:    {"account"},
	capabilities.OptionEmailDomain:     {"domain"},
	capabilities.OptionEmailFirstName:  {"firstname", "first_name"},
	capabilities.OptionEmailLastName:   {"lastname", "last_name"},
	capabilities.OptionEmailGender:     {"gender"},
	capabilities.OptionEmailCity:       {"city"},
	capabilities.OptionEmailRegion:     {"region"},
	capabilities.OptionEmailCountry:    {"country"},
}

// MapValue returns the string value of option from a validation result.
func MapValue(option capabilities.DataOption, r adapters.Result) string {
	keys, ok := fieldFor[option]
	if !ok || r == nil {
		return ""
	}
	if option == capabilities.OptionEmailFree {
		return r.Bool(keys[0])
	}
	return r.First(keys...)
}
