package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/repository/postgres"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studio-api",
		Short:         "Image and video studio backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.Load())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), config.Load())
		},
	})
	return root
}

func migrate(ctx context.Context, cfg *config.Config) error {
	observability.InitLogger(cfg.LogLevel)
	if cfg.StorageDriver != "postgres" {
		return fmt.Errorf("migrate needs STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return postgres.Migrate(ctx, db)
}
