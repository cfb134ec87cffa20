package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-survey-collector/pkg/collector"
	"github.com/goliatone/go-survey-collector/pkg/config"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// fixture is the optional "settings" section of the config file.
type fixture struct {
	System   map[string]string            `yaml:"system"`
	Projects map[string]map[string]string `yaml:"projects"`
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation relay, admin tools and client scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fx, err := loadFile(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, fx, currentLogger())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, fx fixture, lgr logger.Logger) error {
	providers, closeDB, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	module, err := collector.NewModule(collector.ModuleOptions{
		Config:  cfg,
		Storage: providers,
		Logger:  lgr,
	})
	if err != nil {
		return err
	}
	if err := seed(ctx, providers, module.Settings(), fx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           module.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		lgr.Info("survey-collector: listening", logger.Field{Key: "addr", Value: cfg.Server.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	lgr.Info("survey-collector: shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Providers, func(), error) {
	if cfg.Storage.Driver != config.DriverSQLite {
		return storage.NewMemoryProviders(), func() {}, nil
	}
	db, err := storage.OpenSQLite(cfg.Storage.DSN)
	if err != nil {
		return storage.Providers{}, nil, fmt.Errorf("open sqlite: %w", err)
	}
	closeDB := func() { _ = db.Close() }
	if err := storage.CreateTables(ctx, db); err != nil {
		closeDB()
		return storage.Providers{}, nil, fmt.Errorf("create tables: %w", err)
	}
	providers, err := storage.NewBunProviders(db)
	if err != nil {
		closeDB()
		return storage.Providers{}, nil, err
	}
	return providers, closeDB, nil
}

// seed writes fixture settings. System values go through the repository
// store since commands refuse deployment-only keys.
func seed(ctx context.Context, providers storage.Providers, resolver *settings.Resolver, fx fixture) error {
	if len(fx.System) == 0 && len(fx.Projects) == 0 {
		return nil
	}
	st, ok := resolver.Store().(*settings.RepositoryStore)
	if !ok {
		return errors.New("seed: settings store is not repository backed")
	}
	return providers.Transaction.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, key := range sortedKeys(fx.System) {
			if err := st.SetSystemSetting(ctx, key, fx.System[key]); err != nil {
				return fmt.Errorf("seed system %s: %w", key, err)
			}
		}
		for pid, values := range fx.Projects {
			for _, key := range sortedKeys(values) {
				if err := st.SetProjectSetting(ctx, pid, key, values[key]); err != nil {
					return fmt.Errorf("seed project %s %s: %w", pid, key, err)
				}
			}
		}
		return nil
	})
}

// loadFile reads the YAML config. An empty path yields defaults.
func loadFile(path string) (config.Config, fixture, error) {
	if path == "" {
		cfg, err := config.Load(config.Defaults())
		return cfg, fixture{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fixture{}, fmt.Errorf("read config: %w", err)
	}
	return parseFile(raw)
}

func parseFile(raw []byte) (config.Config, fixture, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return config.Config{}, fixture{}, fmt.Errorf("parse config: %w", err)
	}
	var fx fixture
	if section, ok := doc["settings"]; ok {
		delete(doc, "settings")
		encoded, err := yaml.Marshal(section)
		if err != nil {
			return config.Config{}, fixture{}, err
		}
		if err := yaml.Unmarshal(encoded, &fx); err != nil {
			return config.Config{}, fixture{}, fmt.Errorf("parse settings fixture: %w", err)
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	cfg, err := config.Load(doc)
	if err != nil {
		return config.Config{}, fixture{}, err
	}
	return cfg, fx, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
