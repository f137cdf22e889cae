package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/crewmanifest/crewmanifest/internal/settings"
	"github.com/spf13/cobra"
)

func newSettingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset saved panel geometry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved panel settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				loaded, err := settings.Load(a.cfg.SettingsPath(), a.logger)
				if err != nil {
					return err
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(loaded)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default panel layout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := a.cfg.SettingsPath()
				if err := settings.Defaults().Save(path, a.logger); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Settings reset: %s\n", path)
				return nil
			},
		},
	)
	return cmd
}
