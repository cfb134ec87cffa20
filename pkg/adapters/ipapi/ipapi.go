// Package ipapi resolves IP geolocation through the ip-api.com JSON endpoint.
package ipapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// Fields requested from ip-api; one per geolocation option.
const Fields = "status,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,proxy,hosting"

const (
	defaultTimeout = 3 * time.Second
	minTimeout     = time.Second
	maxTimeout     = 30 * time.Second
)

// Adapter queries ip-api.com. The free tier is HTTP only, so certificate
// verification is disabled for this integration.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	caps adapters.Capability
	cfg  Config

	mu       sync.Mutex
	fetchers map[time.Duration]*adapters.Fetcher
	client   *http.Client
}

type Option func(*Adapter)

// Config holds ip-api endpoint settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
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
		if strings.TrimSpace(cfg.BaseURL) != "" {
			a.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.Timeout > 0 {
			a.cfg.Timeout = clamp(cfg.Timeout)
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

// WithHTTPClient pins every call to c regardless of the requested timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "ipapi",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "ipapi",
			Families: []string{string(capabilities.FamilyGeolocation)},
		},
		cfg: Config{
			BaseURL: "http://ip-api.com/json",
			Timeout: defaultTimeout,
		},
		fetchers: make(map[time.Duration]*adapters.Fetcher),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Configured is always true; ip-api needs no credentials.
func (a *Adapter) Configured() bool { return true }

var errFail = errors.New("lookup failed")

// Lookup geolocates ip. timeout <= 0 uses the configured default; other
// values are clamped to [1s, 30s]. Any failure returns nil.
func (a *Adapter) Lookup(ctx context.Context, ip string, timeout time.Duration) adapters.Result {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil
	}
	endpoint := a.cfg.BaseURL + "/" + url.PathEscape(ip) + "?fields=" + url.QueryEscape(Fields)
	return a.fetcher(timeout).Fetch(ctx, adapters.Request{
		Integration: a.name,
		URL:         endpoint,
		Check: func(r adapters.Result) error {
			if strings.EqualFold(r.Text("status"), "fail") {
				msg := r.Text("message")
				if msg == "" {
					return errFail
				}
				return errors.New(msg)
			}
			return nil
		},
	})
}

func (a *Adapter) fetcher(timeout time.Duration) *adapters.Fetcher {
	if timeout <= 0 {
		timeout = a.cfg.Timeout
	}
	timeout = clamp(timeout)
	a.mu.Lock()
	defer a.mu.Unlock()
	if f, ok := a.fetchers[timeout]; ok {
		return f
	}
	client := a.client
	if client == nil {
		client = adapters.NewHTTPClient(adapters.ClientConfig{
			Timeout:            timeout,
			ConnectTimeout:     timeout,
			InsecureSkipVerify: true,
		})
	}
	f := adapters.NewFetcher(a.base.Logger(), client)
	a.fetchers[timeout] = f
	return f
}

func clamp(d time.Duration) time.Duration {
	if d < minTimeout {
		return minTimeout
	}
	if d > maxTimeout {
		return maxTimeout
	}
	return d
}

var fieldFor = map[capabilities.DataOption]string{
	capabilities.OptionGeoStatus:      "status",
	capabilities.OptionGeoCountry:     "country",
	capabilities.OptionGeoCountryCode: "countryCode",
	capabilities.OptionGeoRegion:      "region",
	capabilities.OptionGeoRegionName:  "regionName",
	capabilities.OptionGeoCity:        "city",
	capabilities.OptionGeoZip:         "zip",
	capabilities.OptionGeoLat:         "lat",
	capabilities.OptionGeoLon:         "lon",
	capabilities.OptionGeoTimezone:    "timezone",
	capabilities.OptionGeoISP:         "isp",
	capabilities.OptionGeoOrg:         "org",
	capabilities.OptionGeoAS:          "as",
	capabilities.OptionGeoProxy:       "proxy",
	capabilities.OptionGeoHosting:     "hosting",
}

// MapValue returns the string value of option from a lookup result.
func MapValue(option capabilities.DataOption, r adapters.Result) string {
	key, ok := fieldFor[option]
	if !ok || r == nil {
		return ""
	}
	switch option {
	case capabilities.OptionGeoProxy, capabilities.OptionGeoHosting:
		return r.Bool(key)
	}
	return r.Text(key)
}
