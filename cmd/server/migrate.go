package main

import (
	"careerpath_go/internal/config"
	"careerpath_go/pkg/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Conf
			db := database.InitMySQL(cfg.Database.MySQL.DSN, cfg.Database.MySQL.LogLevel)
			return database.RunMigrate(db)
		},
	}
}
