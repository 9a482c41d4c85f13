package main

import (
	"github.com/clientdesk-api/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.Connect(cfg.DB, logger)
			if err != nil {
				return err
			}
			defer database.Close(db)

			return database.Migrate(db, logger)
		},
	}
}
