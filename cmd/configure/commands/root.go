package commands

import (
	"fmt"

	"github.com/benvon/origin-guard/internal/config"
	"github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the origin-guard-configure command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "origin-guard-configure",
		Short:        "Configuration tool for Origin Guard",
		Long:         "Inspect the resolved origin policy, check origins against it and write a starter config file.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $"+config.ConfigPathEnv+")")

	rootCmd.AddCommand(NewShowCmd(&configPath))
	rootCmd.AddCommand(NewCheckCmd(&configPath))
	rootCmd.AddCommand(NewInitCmd())

	return rootCmd
}

// loadPolicy resolves the policy the server would run with for the same
// config file and environment.
func loadPolicy(configPath string) (*config.Config, *originpolicy.Policy, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger, err := logger.New(logger.FormatConsole, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	policy, err := cfg.OriginPolicy(zapLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve origin policy: %w", err)
	}
	return cfg, policy, nil
}
