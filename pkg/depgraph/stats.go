package depgraph

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Stats summarizes the graph.
func (g *Graph) Stats() types.GraphStats {
	n := len(g.paths)
	s := types.GraphStats{
		TotalFiles:     n,
		TotalEdges:     g.EdgeCount(),
		HubThreshold:   g.hubThreshold,
		Languages:      make(map[string]int),
		Cycles:         len(g.Cycles()),
		RankIterations: g.rankRes.Iterations,
		RankConverged:  g.rankRes.Converged,
	}

	for i := range g.paths {
		in, out := len(g.in[i]), len(g.out[i])
		if in >= g.hubThreshold {
			s.HubFiles++
		}
		if in >= rank.CriticalHubThreshold {
			s.CriticalHubs++
		}
		if in > s.MaxInDegree {
			s.MaxInDegree = in
		}
		if in == 0 && out == 0 {
			s.IsolatedFiles++
		}
		s.Languages[g.language[i]]++
		for _, o := range g.outcomes[i] {
			if !o.Found() {
				s.UnresolvedCount++
			}
		}
	}

	if n > 0 {
		s.AvgImports = float64(s.TotalEdges) / float64(n)
		s.AvgImporters = float64(s.TotalEdges) / float64(n)
	}
	return s
}

// Cycles returns the groups of files that import each other, directly or
// transitively. Each group is sorted; groups are ordered by first path.
func (g *Graph) Cycles() [][]string {
	dg := simple.NewDirectedGraph()
	for i := range g.paths {
		dg.AddNode(simple.Node(int64(i)))
	}
	for i, targets := range g.out {
		for _, t := range targets {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(i)), T: simple.Node(int64(t))})
		}
	}

	var out [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		group := make([]string, len(scc))
		for k, node := range scc {
			group[k] = g.paths[node.ID()]
		}
		slices.Sort(group)
		out = append(out, group)
	}
	slices.SortFunc(out, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return out
}
