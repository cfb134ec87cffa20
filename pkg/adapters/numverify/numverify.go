// Package numverify validates phone numbers with the apilayer Numverify API.
package numverify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// DefaultCountryCode is assumed for bare 10-digit numbers.
const DefaultCountryCode = "1"

var ErrAccessKeyRequired = errors.New("numverify: access key required")

// Adapter calls Numverify with TLS verification enforced.
type Adapter struct {
	name    string
	base    adapters.BaseAdapter
	caps    adapters.Capability
	cfg     Config
	client  *http.Client
	fetcher *adapters.Fetcher
}

type Option func(*Adapter)

// Config holds Numverify endpoint settings.
type Config struct {
	AccessKey      string
	BaseURL        string
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
		if cfg.AccessKey != "" {
			a.cfg.AccessKey = cfg.AccessKey
		}
		if strings.TrimSpace(cfg.BaseURL) != "" {
			a.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.Timeout > 0 {
			a.cfg.Timeout = cfg.Timeout
		}
		if cfg.ConnectTimeout > 0 {
			a.cfg.ConnectTimeout = cfg.ConnectTimeout
		}
	}
}

func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(u) != "" {
			a.cfg.BaseURL = strings.TrimRight(u, "/")
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

func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "numverify",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "numverify",
			Families: []string{string(capabilities.FamilyPhone)},
		},
		cfg: Config{
			BaseURL:        "https://apilayer.net/api",
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

// Configured reports whether a default access key is set.
func (a *Adapter) Configured() bool { return strings.TrimSpace(a.cfg.AccessKey) != "" }

// Normalize keeps digits and a leading '+'. A bare 10-digit number is
// assumed to be North American: "1" is prepended and returned as the
// assumed country code.
func Normalize(raw string) (number, assumedCountryCode string) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	number = b.String()
	if !strings.HasPrefix(number, "+") && len(number) == 10 {
		return DefaultCountryCode + number, DefaultCountryCode
	}
	return number, ""
}

// Validate normalises phone and looks it up. Any failure, including
// success=false in the body, returns nil.
func (a *Adapter) Validate(ctx context.Context, accessKey, phone string) adapters.Result {
	key := strings.TrimSpace(accessKey)
	if key == "" {
		key = strings.TrimSpace(a.cfg.AccessKey)
	}
	if key == "" {
		a.base.Logger().Warn("numverify: validation skipped", logger.Field{Key: "error", Value: ErrAccessKeyRequired})
		return nil
	}
	number, countryCode := Normalize(phone)
	if number == "" || number == "+" {
		return nil
	}
	q := url.Values{}
	q.Set("access_key", key)
	q.Set("number", number)
	q.Set("country_code", countryCode)
	q.Set("format", "1")
	return a.fetcher.Fetch(ctx, adapters.Request{
		Integration: a.name,
		URL:         a.cfg.BaseURL + "/validate?" + q.Encode(),
		Redact:      []string{"access_key", "number"},
		Check:       checkSuccess,
	})
}

func checkSuccess(r adapters.Result) error {
	v, ok := r["success"].(bool)
	if !ok || v {
		return nil
	}
	info := "request unsuccessful"
	if e, ok := r["error"].(map[string]any); ok {
		if s := adapters.Flatten(e["info"]); s != "" {
			info = s
		}
	}
	return errors.New(info)
}

var fieldFor = map[capabilities.DataOption]string{
	capabilities.OptionPhoneValid:         "valid",
	capabilities.OptionPhoneInternational: "international_format",
	capabilities.OptionPhoneLocal:         "local_format",
	capabilities.OptionPhoneCountryPrefix: "country_prefix",
	capabilities.OptionPhoneCountryCode:   "country_code",
	capabilities.OptionPhoneCountryName:   "country_name",
	capabilities.OptionPhoneLocation:      "location",
	capabilities.OptionPhoneCarrier:       "carrier",
	capabilities.OptionPhoneLineType:      "line_type",
}

// MapValue returns the string value of option from a validation result.
func MapValue(option capabilities.DataOption, r adapters.Result) string {
	key, ok := fieldFor[option]
	if !ok || r == nil {
		return ""
	}
	if option == capabilities.OptionPhoneValid {
		return r.Bool(key)
	}
	return r.Text(key)
}
