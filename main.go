package main

import (
	"fmt"
	"os"

	"github.com/clientdesk-api/config"
	"github.com/clientdesk-api/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "clientdesk",
		Short:         "Client project tracking and feedback API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to an optional YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the YAML file and the environment, then builds
// the process logger to match
func loadConfig() (*config.Config, *zap.Logger, error) {
	config.LoadEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
