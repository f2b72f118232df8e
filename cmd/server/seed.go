package main

import (
	"errors"
	"fmt"

	"careerpath_go/internal/config"
	"careerpath_go/internal/seed"
	"careerpath_go/pkg/log"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		file string
		as   string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a nested taxonomy file through the regular create path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if as == "" {
				return errors.New("--as is required: the import runs with that admin's identity")
			}
			nodes, err := seed.Load(file)
			if err != nil {
				return err
			}

			a := newApp(config.Conf)
			defer a.close()

			ctx := cmd.Context()
			caller, err := a.userService.GetProfile(ctx, as)
			if err != nil {
				return fmt.Errorf("load user %q: %w", as, err)
			}

			rep, err := seed.Import(ctx, a.filterService, caller, nodes)
			log.Infow("taxonomy import finished", "file", file, "created", rep.Created, "existed", rep.Existed)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "configs/taxonomy.sample.yaml", "taxonomy file (yaml/json/toml)")
	cmd.Flags().StringVar(&as, "as", "", "username of the admin performing the import")
	return cmd
}
