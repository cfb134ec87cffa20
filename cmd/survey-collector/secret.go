package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-collector/pkg/collector"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/goliatone/go-survey-collector/pkg/settings"
)

var errNoVault = errors.New("secrets.key is not configured; vaulted credentials are disabled")

func newSecretCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage vaulted integration credentials",
	}
	cmd.PersistentFlags().StringVar(&project, "project", "", "project id (empty stores a deployment-wide value)")

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a credential, e.g. zerobounce-api-key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd.Context(), func(ctx context.Context, vault *secrets.Vault) error {
				ref, err := secretRef(project, args[0])
				if err != nil {
					return err
				}
				version, err := vault.Store(ctx, ref, []byte(strings.TrimSpace(args[1])))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s) version %s\n", ref.Key, secrets.Mask(args[1]), version)
				return nil
			})
		},
	}
	rm := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete every version of a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd.Context(), func(ctx context.Context, vault *secrets.Vault) error {
				ref, err := secretRef(project, args[0])
				if err != nil {
					return err
				}
				if err := vault.Remove(ctx, ref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", ref.Key)
				return nil
			})
		},
	}
	cmd.AddCommand(set, rm)
	return cmd
}

func secretRef(project, key string) (secrets.Reference, error) {
	key = strings.TrimSpace(key)
	integration, ok := settings.SecretIntegration(key)
	if !ok {
		return secrets.Reference{}, fmt.Errorf("%q is not a vaultable credential", key)
	}
	if project == "" {
		return secrets.SystemRef(integration, key), nil
	}
	if key == settings.KeyEncryptionKey {
		return secrets.Reference{}, fmt.Errorf("%s is deployment-wide; drop --project", key)
	}
	return secrets.ProjectRef(project, integration, key), nil
}

func withVault(ctx context.Context, fn func(context.Context, *secrets.Vault) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, err := loadFile(configPath)
	if err != nil {
		return err
	}
	providers, closeDB, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	module, err := collector.NewModule(collector.ModuleOptions{
		Config:  cfg,
		Storage: providers,
		Logger:  currentLogger(),
	})
	if err != nil {
		return err
	}
	vault := module.Container().Vault
	if vault == nil {
		return errNoVault
	}
	return fn(ctx, vault)
}
