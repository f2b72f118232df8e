package main

import (
	"fmt"
	"os"

	"careerpath_go/internal/config"
	"careerpath_go/pkg/log"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "careerpath",
		Short:         "Career path taxonomy service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			config.Conf = cfg
			log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML config file")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newCreateAdminCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
