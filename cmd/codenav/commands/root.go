package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "codenav",
	Short: "codenav - Import resolution and architectural ranking for codebases",
	Long: `codenav resolves every import in a project to the file it refers to,
builds the file dependency graph and ranks files by architectural importance.

Commands:
  analyze     Build the graph, print statistics and save a snapshot
  resolve     Explain how one import string resolves
  critical    List the most important files
  hubs        List files imported by many others
  deps        Show what a file depends on
  importers   Show what depends on a file
  connected   List direct neighbours of a file
  cycles      List groups of mutually dependent files
  export      Write the graph as JSON, msgpack or into Neo4j
  init        Create a configuration file interactively

Use "codenav [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringP("root", "r", ".", "Project root directory")
	RootCmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, silent)")
	RootCmd.PersistentFlags().Bool("fresh", false, "Rebuild the graph instead of reading the saved snapshot")

	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(resolveCmd)
	RootCmd.AddCommand(criticalCmd)
	RootCmd.AddCommand(hubsCmd)
	RootCmd.AddCommand(depsCmd)
	RootCmd.AddCommand(importersCmd)
	RootCmd.AddCommand(connectedCmd)
	RootCmd.AddCommand(cyclesCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(initCmd)
}
