package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	componentName    = "JSON Library Export"
	componentVersion = "1.0.0"
	componentAbout   = `Exports the media library to a JSON file.

Each track carries its path, subsong index, length, ReplayGain values,
technical info, metadata tags and playback statistics.`
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print component name, version and description",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n%s\n", componentName, componentVersion, componentAbout)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
