package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/asking/internal/config"
	"github.com/victornm/asking/internal/server"
	"github.com/victornm/asking/internal/telemetry"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

type flags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	f := new(flags)
	cmd := &cobra.Command{
		Use:           "asking",
		Short:         "Quiz sessions and a shared leaderboard over HTTP, gRPC and WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&f.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the config, if present")
	cmd.AddCommand(newServeCmd(f))
	cmd.AddCommand(newMigrateCmd(f))
	return cmd
}

// loadConfig reads the env file, then the config file, and installs the logger.
func loadConfig(f *flags) (server.Config, error) {
	c := server.DefaultConfig()

	if err := config.LoadEnvFile(f.envFile); err != nil {
		return c, err
	}

	if err := config.Load(f.configPath, &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	if err := telemetry.SetupLogger(os.Stderr, c.Log.Format, c.Log.Level); err != nil {
		return c, fmt.Errorf("setup logger: %w", err)
	}

	return c, nil
}
