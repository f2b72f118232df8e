package main

import (
	"errors"

	"careerpath_go/internal/config"
	"careerpath_go/internal/repository"
	"careerpath_go/internal/service"
	"careerpath_go/pkg/database"
	"careerpath_go/pkg/log"

	"github.com/spf13/cobra"
)

// 管理员声明只能从这里授予，HTTP 接口不提供改角色的能力。
func newCreateAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			cfg := config.Conf
			db := database.InitMySQL(cfg.Database.MySQL.DSN, cfg.Database.MySQL.LogLevel)
			users := service.NewUserService(repository.NewUserRepository(db), nil, nil)

			user, err := users.EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			log.Infow("admin ready", "id", user.ID, "username", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, only used when the user does not exist yet")
	return cmd
}
