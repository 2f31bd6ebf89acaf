package main

import (
	"github.com/spf13/cobra"
)

// setupCommands adds the subcommands to the root command.
func setupCommands(rootCmd *cobra.Command, a *app) {
	rootCmd.AddCommand(newBuildCmd(a))
	rootCmd.AddCommand(newSQLCmd(a))
	rootCmd.AddCommand(newDiffCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newBehaviorsCmd(a))
	rootCmd.AddCommand(newGraphQLCmd(a))
	rootCmd.AddCommand(newDumpCmd(a))
}
