package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/pkg/depgraph"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// criticalCmd represents the critical command
var criticalCmd = &cobra.Command{
	Use:   "critical",
	Short: "List the most important files",
	Long: `Lists files ordered by architectural importance. A file ranks high when
it is imported by files that are themselves important.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		if top == 0 {
			top = p.cfg.TopN
		}
		files := g.CriticalPaths(top)

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, files)
		}
		printHeader(out, "Critical Paths")
		printRanked(out, files)
		return nil
	},
}

// hubsCmd represents the hubs command
var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List files imported by many others",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		threshold, _ := cmd.Flags().GetInt("threshold")
		if threshold <= 0 {
			threshold = p.cfg.HubThreshold
		}
		hubs := g.HubFiles(threshold)

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, hubs)
		}
		printHeader(out, "Hub Files (in-degree >= %d)", threshold)
		printHubs(out, hubs)
		return nil
	},
}

// ChainOutput represents the output of the deps and importers commands
type ChainOutput struct {
	File  string          `json:"file"`
	Depth int             `json:"depth"`
	Chain types.ChainNode `json:"chain"`
}

// depsCmd represents the deps command
var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "Show what a file depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChain(cmd, args[0], "Dependencies", (*depgraph.Graph).DependencyChain)
	},
}

// importersCmd represents the importers command
var importersCmd = &cobra.Command{
	Use:   "importers <file>",
	Short: "Show what depends on a file",
	Long: `Shows the files that import <file>, directly and transitively. This is
the set of files affected by a change to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChain(cmd, args[0], "Importers", (*depgraph.Graph).ImporterChain)
	},
}

func runChain(cmd *cobra.Command, arg, title string, chainOf func(*depgraph.Graph, string, int) (types.ChainNode, bool)) error {
	p, g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	file := p.relPath(arg)
	depth, _ := cmd.Flags().GetInt("depth")

	chain, ok := chainOf(g, file, depth)
	if !ok {
		return fmt.Errorf("file not in graph: %s", file)
	}

	out := cmd.OutOrStdout()
	if p.json {
		return printJSON(out, ChainOutput{File: file, Depth: depth, Chain: chain})
	}
	printHeader(out, "%s: %s", title, file)
	printChain(out, chain)
	return nil
}

// ConnectedOutput represents the output of the connected command
type ConnectedOutput struct {
	File      string   `json:"file"`
	Imports   []string `json:"imports"`
	Importers []string `json:"importers"`
	Connected []string `json:"connected"`
}

// connectedCmd represents the connected command
var connectedCmd = &cobra.Command{
	Use:   "connected <file>",
	Short: "List files directly linked to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		file := p.relPath(args[0])
		node, ok := g.Node(file)
		if !ok {
			return fmt.Errorf("file not in graph: %s", file)
		}

		output := ConnectedOutput{
			File:      file,
			Imports:   node.ResolvedImports,
			Importers: node.Importers,
			Connected: g.Connected(file),
		}

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, output)
		}
		printHeader(out, "Connected: %s", file)
		printList(cmd, "Imports", output.Imports)
		printList(cmd, "Imported by", output.Importers)
		return nil
	},
}

func printList(cmd *cobra.Command, title string, items []string) {
	out := cmd.OutOrStdout()
	headerColor.Fprintf(out, "%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(out, "  %s\n", pathColor.Sprint(item))
	}
	fmt.Fprintln(out)
}

// cyclesCmd represents the cycles command
var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List groups of mutually dependent files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		cycles := g.Cycles()

		out := cmd.OutOrStdout()
		if p.json {
			if cycles == nil {
				cycles = [][]string{}
			}
			return printJSON(out, cycles)
		}
		printHeader(out, "Import Cycles")
		if len(cycles) == 0 {
			fmt.Fprintln(out, "No cycles found.")
			return nil
		}
		for i, group := range cycles {
			warnColor.Fprintf(out, "Cycle %d (%d files):\n", i+1, len(group))
			fmt.Fprintf(out, "  %s\n", strings.Join(group, "\n  "))
		}
		return nil
	},
}

func openGraph(cmd *cobra.Command) (*project, *depgraph.Graph, error) {
	p, err := loadProject(cmd)
	if err != nil {
		return nil, nil, err
	}
	g, err := p.graph(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

func init() {
	criticalCmd.Flags().IntP("top", "n", 0, "Number of files to list (default from config, negative for all)")
	hubsCmd.Flags().IntP("threshold", "t", 0, "Minimum in-degree (default from config)")
	depsCmd.Flags().IntP("depth", "d", 3, "Maximum chain depth")
	importersCmd.Flags().IntP("depth", "d", 3, "Maximum chain depth")
}
