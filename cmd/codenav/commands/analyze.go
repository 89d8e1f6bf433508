package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/pkg/types"
)

// AnalyzeOutput represents the output of the analyze command
type AnalyzeOutput struct {
	RootDir       string             `json:"root_dir"`
	ModulePrefix  string             `json:"module_prefix,omitempty"`
	Stats         types.GraphStats   `json:"stats"`
	CriticalPaths []types.RankedFile `json:"critical_paths"`
	Cycles        [][]string         `json:"cycles,omitempty"`
	Snapshot      string             `json:"snapshot,omitempty"`
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build the dependency graph and rank files",
	Long: `Scans the project, resolves every import, ranks files by architectural
importance and prints a summary. The graph is saved so the query commands
can answer without rescanning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}

		g, files, err := p.build(cmd.Context())
		if err != nil {
			return err
		}

		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			top = p.cfg.TopN
		}
		snap := g.Snapshot(p.root, top)

		output := AnalyzeOutput{
			RootDir:       p.root,
			ModulePrefix:  g.ModulePrefix(),
			Stats:         snap.Stats,
			CriticalPaths: snap.CriticalPaths,
			Cycles:        g.Cycles(),
		}

		if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
			path, err := p.save(cmd.Context(), g, files)
			if err != nil {
				return err
			}
			output.Snapshot = path
		}

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, output)
		}

		printHeader(out, "Dependency Graph: %s", output.RootDir)
		if output.ModulePrefix != "" {
			fmt.Fprintf(out, "Module prefix:    %s\n", output.ModulePrefix)
		}
		printStats(out, output.Stats)
		fmt.Fprintln(out)
		headerColor.Fprintln(out, "Critical paths:")
		printRanked(out, output.CriticalPaths)
		if output.Snapshot != "" {
			fmt.Fprintln(out)
			dimColor.Fprintf(out, "Snapshot saved to %s\n", output.Snapshot)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntP("top", "n", 0, "Number of critical paths to show (default from config)")
	analyzeCmd.Flags().Bool("no-save", false, "Do not save the graph snapshot")
}
