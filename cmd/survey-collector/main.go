// Command survey-collector runs the collector HTTP server and offers admin
// helpers for IP encryption, user-agent parsing and the tag table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/logging"
)

var (
	configPath string
	logLevel   string
	zapLogger  *logging.Zap
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "survey-collector",
		Short:         "Populate survey fields with request, geolocation and validation data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.NewProduction(logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			zapLogger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if zapLogger != nil {
				_ = zapLogger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (config sections plus optional settings fixture)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(), newSecretCmd(), newEncryptCmd(), newDecryptCmd(), newUACmd(), newTagsCmd())
	return root
}

func currentLogger() logger.Logger {
	if zapLogger == nil {
		return &logger.Nop{}
	}
	return zapLogger
}
