package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := initRepo(cfg, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	defer func() {
		if err := repo.Close(ctx); err != nil {
			logger.Log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Log.Info("Database schema is up to date", zap.String("driver", cfg.Database.Driver))
	return nil
}
