package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"branch-deployer/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "branch-deployer",
		Short:         "Deploy a running environment per git branch",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", envOr("ENV_FILE", ".env"), "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCommand(), newRenderCommand())
	return root
}

// loadConfig reads the dotenv file named by --env-file and builds the config
// and a JSON logger at the configured level writing to logOut.
func loadConfig(cmd *cobra.Command, logOut io.Writer) (config.Config, *slog.Logger, error) {
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{}))

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return config.Config{}, logger, err
	}
	loaded, err := config.LoadDotenv(envFile)
	if err != nil {
		logger.Error("failed to load dotenv file", "path", envFile, "error", err)
		return config.Config{}, logger, err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid environment config", "error", err)
		return config.Config{}, logger, err
	}

	level, _ := cfg.SlogLevel()
	logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))
	klog.SetSlogLogger(logger)
	if loaded {
		logger.Info("loaded dotenv file", "path", envFile)
	}
	return cfg, logger, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
