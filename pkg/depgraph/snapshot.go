package depgraph

import (
	"slices"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Snapshot exports the graph as a serializable record with the topN
// critical paths.
func (g *Graph) Snapshot(root string, topN int) types.GraphSnapshot {
	return types.GraphSnapshot{
		Root:          root,
		ModulePrefix:  g.modulePrefix,
		Stats:         g.Stats(),
		CriticalPaths: g.CriticalPaths(topN),
		Files:         g.Nodes(),
		Outcomes:      g.allOutcomes(),
	}
}

func (g *Graph) allOutcomes() map[string][]types.ResolveOutcome {
	out := make(map[string][]types.ResolveOutcome)
	for i, outcomes := range g.outcomes {
		if len(outcomes) > 0 {
			out[g.paths[i]] = slices.Clone(outcomes)
		}
	}
	return out
}

// FromSnapshot rebuilds a queryable graph from a snapshot. Edges come from
// each file's resolved imports; scores and import outcomes are taken as
// stored.
func FromSnapshot(s types.GraphSnapshot) (*Graph, error) {
	files := make([]types.FileImports, len(s.Files))
	for i, f := range s.Files {
		files[i] = types.FileImports{Path: f.Path, Language: f.Language, Imports: f.Imports}
	}

	g, err := newArena(files, log.Nop())
	if err != nil {
		return nil, err
	}
	g.modulePrefix = s.ModulePrefix
	g.hubThreshold = s.Stats.HubThreshold
	if g.hubThreshold <= 0 {
		g.hubThreshold = DefaultHubThreshold
	}

	g.scores = make([]float64, len(g.paths))
	for _, f := range s.Files {
		from, ok := g.id(f.Path)
		if !ok {
			continue
		}
		g.scores[from] = f.Score
		g.outcomes[from] = slices.Clone(s.Outcomes[f.Path])
		for _, target := range f.ResolvedImports {
			g.addEdge(from, target)
		}
	}
	g.sortAdjacency()
	g.rankRes = rank.Result{
		Scores:     g.scores,
		Iterations: s.Stats.RankIterations,
		Converged:  s.Stats.RankConverged,
	}
	return g, nil
}
