package cmd

import (
	"fmt"

	"journal/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the journal version",
	// Skip config and database setup.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "journal %s\n", version.AppVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
