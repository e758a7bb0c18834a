package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agora/internal/app/bootstrap"
	"agora/internal/platform/config"

	"github.com/spf13/cobra"
)

const programName = "agora-api"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: debug,
		Level:     level,
	}))
	slog.SetDefault(logger)
	return logger
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(globalFlags.debug || cfg.Debug)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap api: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("api shutdown close failed",
				"event", "api_close_failed",
				"component", programName,
				"error", err.Error(),
			)
		}
	}()
	return app.Run(ctx)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Serve the proposal ledger and access gate over HTTP",
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
