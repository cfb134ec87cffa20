package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Per-project settings
// (API keys, designated fields, debug flags) live in pkg/settings instead.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" json:"server"`
	Logging      LoggingConfig      `mapstructure:"logging" json:"logging"`
	Integrations IntegrationsConfig `mapstructure:"integrations" json:"integrations"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit" json:"rate_limit"`
	Encryption   EncryptionConfig   `mapstructure:"encryption" json:"encryption"`
	Storage      StorageConfig      `mapstructure:"storage" json:"storage"`
	Secrets      SecretsConfig      `mapstructure:"secrets" json:"secrets"`
}

// ServerConfig drives the standalone HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
	// BaseURL prefixes asset and relay URLs injected into survey pages.
	BaseURL      string   `mapstructure:"base_url" json:"base_url"`
	AdminToken   string   `mapstructure:"admin_token" json:"admin_token"`
	AdminActor   string   `mapstructure:"admin_actor" json:"admin_actor"`
	AllowedHosts []string `mapstructure:"allowed_hosts" json:"allowed_hosts"`
	// TrustedProxies may set the client address through X-Forwarded-For.
	// Empty means the connection peer is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies" json:"trusted_proxies"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// IntegrationsConfig holds the external provider endpoints and budgets.
type IntegrationsConfig struct {
	IPAPI      EndpointConfig `mapstructure:"ipapi" json:"ipapi"`
	ZeroBounce EndpointConfig `mapstructure:"zerobounce" json:"zerobounce"`
	Numverify  EndpointConfig `mapstructure:"numverify" json:"numverify"`
}

// EndpointConfig is one provider's base URL and call budget. CreditsURL is
// only read for ZeroBounce.
type EndpointConfig struct {
	BaseURL        string        `mapstructure:"base_url" json:"base_url"`
	CreditsURL     string        `mapstructure:"credits_url" json:"credits_url,omitempty"`
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
}

// RateLimitConfig bounds relay calls per client address.
type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window" json:"window"`
	Max    int           `mapstructure:"max" json:"max"`
}

type EncryptionConfig struct {
	DefaultKeyVersion string `mapstructure:"default_key_version" json:"default_key_version"`
}

// StorageConfig selects the repository backend: "memory" or "sqlite".
type StorageConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// SecretsConfig holds the master key of the encrypted secret store.
type SecretsConfig struct {
	Key string `mapstructure:"key" json:"key"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:       ":8080",
			AdminActor: "admin",
		},
		Logging: LoggingConfig{Level: "info"},
		Integrations: IntegrationsConfig{
			IPAPI: EndpointConfig{
				BaseURL: "http://ip-api.com/json",
				Timeout: 3 * time.Second,
			},
			ZeroBounce: EndpointConfig{
				BaseURL:        "https://api.zerobounce.net/v2",
				CreditsURL:     "https://api-us.zerobounce.net/v2",
				Timeout:        10 * time.Second,
				ConnectTimeout: 5 * time.Second,
			},
			Numverify: EndpointConfig{
				BaseURL:        "https://apilayer.net/api",
				Timeout:        10 * time.Second,
				ConnectTimeout: 5 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			Window: 60 * time.Second,
			Max:    10,
		},
		Encryption: EncryptionConfig{DefaultKeyVersion: "v1"},
		Storage: StorageConfig{
			Driver: DriverMemory,
			DSN:    "file::memory:?cache=shared",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}
	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("rate_limit.max must be > 0")
	}
	for name, ep := range map[string]EndpointConfig{
		"ipapi":      c.Integrations.IPAPI,
		"zerobounce": c.Integrations.ZeroBounce,
		"numverify":  c.Integrations.Numverify,
	} {
		if ep.Timeout < 0 || ep.ConnectTimeout < 0 {
			return fmt.Errorf("integrations.%s timeouts must be >= 0", name)
		}
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("storage.dsn is required for sqlite")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	if m, ok := input.(map[string]any); ok {
		normalized, err := normalizeDurations(m)
		if err != nil {
			return Config{}, err
		}
		input = normalized
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.AdminActor == "" {
		c.Server.AdminActor = defaults.Server.AdminActor
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	c.Integrations.IPAPI = c.Integrations.IPAPI.withDefaults(defaults.Integrations.IPAPI)
	c.Integrations.ZeroBounce = c.Integrations.ZeroBounce.withDefaults(defaults.Integrations.ZeroBounce)
	c.Integrations.Numverify = c.Integrations.Numverify.withDefaults(defaults.Integrations.Numverify)
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = defaults.RateLimit.Window
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = defaults.RateLimit.Max
	}
	if c.Encryption.DefaultKeyVersion == "" {
		c.Encryption.DefaultKeyVersion = defaults.Encryption.DefaultKeyVersion
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = defaults.Storage.DSN
	}
	return c
}

func (e EndpointConfig) withDefaults(d EndpointConfig) EndpointConfig {
	if e.BaseURL == "" {
		e.BaseURL = d.BaseURL
	}
	if e.CreditsURL == "" {
		e.CreditsURL = d.CreditsURL
	}
	if e.Timeout == 0 {
		e.Timeout = d.Timeout
	}
	if e.ConnectTimeout == 0 {
		e.ConnectTimeout = d.ConnectTimeout
	}
	return e
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}

var durationKeys = map[string]bool{
	"timeout":         true,
	"connect_timeout": true,
	"window":          true,
}

// normalizeDurations rewrites "10s" style strings under duration keys to
// nanoseconds so the JSON decoder accepts them.
func normalizeDurations(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case map[string]any:
			nested, err := normalizeDurations(val)
			if err != nil {
				return nil, err
			}
			out[k] = nested
		case string:
			if durationKeys[k] {
				d, err := time.ParseDuration(val)
				if err != nil {
					return nil, fmt.Errorf("config: %s: %w", k, err)
				}
				out[k] = int64(d)
				continue
			}
			out[k] = val
		default:
			out[k] = v
		}
	}
	return out, nil
}
