package main

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

var configPath string

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	rootCmd := &cobra.Command{
		Use:           "voice-receptionist",
		Short:         "Voice receptionist webhook service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "directory containing default.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(provisionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the global logger.
func bootstrap() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitializeWithFile(cfg.LogLevel, logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// initRepo opens the database configured in cfg.
func initRepo(cfg *config.Config, autoMigrate bool) (*storage.GormRepo, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	repo, err := storage.NewGormRepo(storage.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		AutoMigrate:     autoMigrate,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		RetryMaxElapsed: cfg.Database.RetryMaxElapsed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", cfg.Database.Driver, err)
	}
	return repo, nil
}
