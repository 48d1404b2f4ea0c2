package cmd

import (
	"fmt"

	"libexport/core/settings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the remembered export settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSettings(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		fmt.Fprintf(cmd.OutOrStdout(), "last export path: %s\n",
			settings.PathOrDefault(cmd.Context(), store, cfg.ExportPath))
		return nil
	},
}

var settingsSetPathCmd = &cobra.Command{
	Use:   "set-path <file>",
	Short: "Set the default export destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSettings(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return store.SetLastExportPath(cmd.Context(), args[0])
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetPathCmd)
	rootCmd.AddCommand(settingsCmd)
}
