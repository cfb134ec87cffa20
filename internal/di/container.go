package di

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-survey-collector/internal/storage/memory"
	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/activity/auditsink"
	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/adapters/ipapi"
	"github.com/goliatone/go-survey-collector/pkg/adapters/numverify"
	"github.com/goliatone/go-survey-collector/pkg/adapters/zerobounce"
	"github.com/goliatone/go-survey-collector/pkg/assets"
	"github.com/goliatone/go-survey-collector/pkg/commands"
	"github.com/goliatone/go-survey-collector/pkg/config"
	"github.com/goliatone/go-survey-collector/pkg/hooks"
	"github.com/goliatone/go-survey-collector/pkg/httpapi"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
	"github.com/goliatone/go-survey-collector/pkg/ratelimit"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/snapshot"
	"github.com/goliatone/go-survey-collector/pkg/storage"
	"golang.org/x/crypto/chacha20poly1305"
)

// secretCacheTTL bounds how long resolved credentials stay cached.
const secretCacheTTL = time.Minute

// Options configure the DI container.
type Options struct {
	Config  config.Config
	Storage storage.Providers
	Logger  logger.Logger
	// Settings replaces the repository-backed settings store, e.g. with the
	// host platform's own configuration tables.
	Settings   host.SettingsStore
	Secrets    secrets.Resolver
	Sessions   httpapi.SessionStore
	Authorizer host.Authorizer
	Activity   []activity.Hook
}

// Container wires repositories, integrations, hooks, commands and the HTTP server.
type Container struct {
	Config     config.Config
	Storage    storage.Providers
	Logger     logger.Logger
	Settings   *settings.Resolver
	Secrets    secrets.Resolver
	Adapters   *adapters.Registry
	GeoIP      *ipapi.Adapter
	Email      *zerobounce.Adapter
	Phone      *numverify.Adapter
	Renderer   *assets.Renderer
	Hooks      *hooks.Hooks
	Limiter    *ratelimit.Limiter
	Commands   *commands.Registry
	Activity   activity.Hooks
	Server     *httpapi.Server
	// Vault is set when secrets.key is configured; it stores vaulted API keys.
	Vault      *secrets.Vault
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.Settings == nil {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	secretsResolver := opts.Secrets
	var vault *secrets.Vault
	if secretsResolver == nil && strings.TrimSpace(cfg.Secrets.Key) != "" {
		key, err := decodeSecretKey(cfg.Secrets.Key)
		if err != nil {
			return nil, err
		}
		provider, err := secrets.NewEncryptedStoreProvider(providers.Secrets, key)
		if err != nil {
			return nil, err
		}
		vault = secrets.NewVault(provider, secretCacheTTL)
		secretsResolver = vault
	}

	settingsStore := opts.Settings
	if settingsStore == nil {
		settingsStore = settings.NewRepositoryStore(providers.Settings)
	}
	resolver := settings.NewResolver(settingsStore,
		settings.WithSecrets(secretsResolver),
		settings.WithLogger(lgr),
	)

	ints := cfg.Integrations
	geo := ipapi.New(lgr, ipapi.WithConfig(ipapi.Config{
		BaseURL: ints.IPAPI.BaseURL,
		Timeout: ints.IPAPI.Timeout,
	}))
	email := zerobounce.New(lgr, zerobounce.WithConfig(zerobounce.Config{
		BaseURL:        ints.ZeroBounce.BaseURL,
		CreditsURL:     ints.ZeroBounce.CreditsURL,
		Timeout:        ints.ZeroBounce.Timeout,
		ConnectTimeout: ints.ZeroBounce.ConnectTimeout,
	}))
	phone := numverify.New(lgr, numverify.WithConfig(numverify.Config{
		BaseURL:        ints.Numverify.BaseURL,
		Timeout:        ints.Numverify.Timeout,
		ConnectTimeout: ints.Numverify.ConnectTimeout,
	}))
	registry := adapters.NewRegistry(geo, email, phone)

	renderer, err := assets.NewRenderer(cfg.Server.BaseURL)
	if err != nil {
		return nil, err
	}

	builder := snapshot.NewBuilder(geo)
	hks := hooks.New(
		hooks.WithBuilder(builder),
		hooks.WithSubmitter(populator.NewSubmitter(builder, email, phone)),
		hooks.WithRenderer(renderer),
	)

	activityHooks := activity.Hooks{auditsink.Hook{Repository: providers.Audit, Logger: lgr}}
	activityHooks = append(activityHooks, opts.Activity...)

	cmdRegistry, err := commands.New(commands.Dependencies{
		Settings: settingsStore,
		Activity: activityHooks,
		Logger:   lgr,
	})
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(ratelimit.WithConfig(ratelimit.Config{
		Window: cfg.RateLimit.Window,
		Max:    cfg.RateLimit.Max,
	}))

	sessions := opts.Sessions
	if sessions == nil {
		sessions = memory.NewSessions()
	}
	authorizer := opts.Authorizer
	if authorizer == nil && cfg.Server.AdminToken != "" {
		authorizer = httpapi.StaticAuthorizer{cfg.Server.AdminToken: cfg.Server.AdminActor}
	}

	server, err := httpapi.New(httpapi.Dependencies{
		Settings:       resolver,
		Email:          email,
		Sessions:       sessions,
		Limiter:        limiter,
		Commands:       cmdRegistry,
		Authorizer:     authorizer,
		Activity:       activityHooks,
		Logger:         lgr,
		AllowedHosts:   cfg.Server.AllowedHosts,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		return nil, err
	}

	lgr.Debug("di: integrations registered", logger.Field{Key: "integrations", Value: registry.Describe()})

	return &Container{
		Config:     cfg,
		Storage:    providers,
		Logger:     lgr,
		Settings:   resolver,
		Secrets:    secretsResolver,
		Adapters:   registry,
		GeoIP:      geo,
		Email:      email,
		Phone:      phone,
		Renderer:   renderer,
		Hooks:      hks,
		Limiter:    limiter,
		Commands:   cmdRegistry,
		Activity:   activityHooks,
		Server:     server,
		Vault:      vault,
	}, nil
}

// decodeSecretKey accepts a base64 encoded 32-byte key.
func decodeSecretKey(raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("di: secrets.key must be base64: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("di: secrets.key must decode to 32 bytes")
	}
	return key, nil
}
