package main

import (
	"github.com/spf13/cobra"

	"jidokhae/internal/infrastructure/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
		},
	}
}
