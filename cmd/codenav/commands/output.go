package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/types"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	pathColor   = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
)

var levelColors = map[rank.HubLevel]*color.Color{
	rank.HubCritical: color.New(color.FgRed, color.Bold),
	rank.HubHigh:     color.New(color.FgRed),
	rank.HubMedium:   color.New(color.FgYellow),
	rank.HubLow:      color.New(color.FgBlue),
	rank.HubNone:     dimColor,
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printHeader(w io.Writer, format string, args ...interface{}) {
	headerColor.Fprintf(w, "=== "+format+" ===\n\n", args...)
}

func printRanked(w io.Writer, files []types.RankedFile) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files.")
		return
	}
	width := len(fmt.Sprint(len(files)))
	for i, f := range files {
		fmt.Fprintf(w, "  %*d. %s ", width, i+1, pathColor.Sprint(f.Path))
		dimColor.Fprintf(w, "%.6f\n", f.Score)
	}
}

func printHubs(w io.Writer, hubs []types.HubFile) {
	if len(hubs) == 0 {
		fmt.Fprintln(w, "No hub files.")
		return
	}
	for _, h := range hubs {
		c := levelColors[rank.HubLevel(h.Level)]
		if c == nil {
			c = dimColor
		}
		fmt.Fprintf(w, "  %s %s ", c.Sprintf("%-9s", h.Level), pathColor.Sprint(h.Path))
		dimColor.Fprintf(w, "(in %d, out %d, score %.2f)\n", h.InDegree, h.OutDegree, h.HubScore)
	}
}

// printChain renders a chain as an indented tree.
func printChain(w io.Writer, chain types.ChainNode) {
	chain.Walk(func(node types.ChainNode, depth int) bool {
		indent := strings.Repeat("  ", depth)
		if depth == 0 {
			fmt.Fprintln(w, pathColor.Sprint(node.Path))
			return true
		}
		fmt.Fprintf(w, "%s└─ %s", indent, node.Path)
		if node.Cycle {
			warnColor.Fprint(w, " (cycle)")
		}
		fmt.Fprintln(w)
		return true
	})
}

func printStats(w io.Writer, s types.GraphStats) {
	fmt.Fprintf(w, "Files:            %d\n", s.TotalFiles)
	fmt.Fprintf(w, "Import edges:     %d\n", s.TotalEdges)
	fmt.Fprintf(w, "Unresolved:       %d\n", s.UnresolvedCount)
	fmt.Fprintf(w, "Isolated files:   %d\n", s.IsolatedFiles)
	fmt.Fprintf(w, "Hub files (>=%d):  %d (critical: %d)\n", s.HubThreshold, s.HubFiles, s.CriticalHubs)
	fmt.Fprintf(w, "Max in-degree:    %d\n", s.MaxInDegree)
	fmt.Fprintf(w, "Avg imports:      %.2f\n", s.AvgImports)
	fmt.Fprintf(w, "Cycles:           %d\n", s.Cycles)
	convergence := "converged"
	if !s.RankConverged {
		convergence = warnColor.Sprint("not converged")
	}
	fmt.Fprintf(w, "Ranking:          %d iterations, %s\n", s.RankIterations, convergence)
	if len(s.Languages) > 0 {
		fmt.Fprint(w, "Languages:       ")
		for _, lang := range sortedKeys(s.Languages) {
			fmt.Fprintf(w, " %s=%d", lang, s.Languages[lang])
		}
		fmt.Fprintln(w)
	}
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
