package cli

import (
	"fmt"
	"io"
	"os"

	"course-trivia-service/internal/config"
	"github.com/google/logger"
	"github.com/spf13/cobra"
)

const serviceName = "course-trivia-service"

var (
	port       string
	configPath string
	verbose    bool
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Course storefront trivia service with a one-time gift course",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", true, "also write logs to stdout/stderr")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}

// loadConfig reads the config and sets up logging; the returned func flushes the log.
func loadConfig(path string) (config.Config, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	var (
		out  io.Writer = io.Discard
		file *os.File
	)
	if cfg.Log.File != "" {
		file, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return cfg, nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
	}
	l := logger.Init(serviceName, verbose, false, out)
	closeLog := func() {
		l.Close()
		if file != nil {
			_ = file.Close()
		}
	}
	return cfg, closeLog, nil
}
