package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/matchup-server/internal/app"
	"github.com/vovakirdan/matchup-server/internal/config"
	"github.com/vovakirdan/matchup-server/internal/log"
	"github.com/vovakirdan/matchup-server/internal/store/sqlite"
)

type rootOptions struct {
	configPath string
	logLevel   string
	dbPath     string
	addr       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "matchup-server:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "matchup-server",
		Short:         "Games, posts and room chat for the matchup app",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrate(opts)
		},
	}

	root.AddCommand(serve, migrate)
	return root
}

// loadConfig resolves config with precedence defaults < file < env < flags.
func loadConfig(opts *rootOptions) (config.Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	bootLogger := log.New(opts.logLevel)
	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.UpdateFrom(config.Config{
		LogLevel:     opts.logLevel,
		DatabasePath: opts.dbPath,
		Addr:         opts.addr,
	})
	bootLogger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New(cfg.LogLevel)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to init app")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Strs("allowed_origins", cfg.AllowedOrigins).Msg("starting matchup server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runMigrate(opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New(cfg.LogLevel)

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.DatabasePath).Msg("migration failed")
		return err
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("migrations applied")
	return nil
}
