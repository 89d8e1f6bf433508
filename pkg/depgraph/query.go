package depgraph

import (
	"slices"
	"strings"

	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Node returns the record for path.
func (g *Graph) Node(path string) (types.SourceFile, bool) {
	id, ok := g.id(path)
	if !ok {
		return types.SourceFile{}, false
	}
	return g.node(id), true
}

func (g *Graph) node(id NodeID) types.SourceFile {
	f := types.SourceFile{
		Path:            g.paths[id],
		Language:        g.language[id],
		Imports:         slices.Clone(g.imports[id]),
		ResolvedImports: g.pathsOf(g.out[id]),
		Importers:       g.pathsOf(g.in[id]),
		InDegree:        len(g.in[id]),
		OutDegree:       len(g.out[id]),
	}
	if int(id) < len(g.scores) {
		f.Score = g.scores[id]
	}
	return f
}

// Nodes returns every file record in path order.
func (g *Graph) Nodes() []types.SourceFile {
	out := make([]types.SourceFile, len(g.paths))
	for i := range g.paths {
		out[i] = g.node(NodeID(i))
	}
	return out
}

// Edge is a resolved import between two files.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Edges returns every edge, ordered by source then target path.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for i, targets := range g.out {
		for _, t := range targets {
			out = append(out, Edge{From: g.paths[i], To: g.paths[t]})
		}
	}
	return out
}

// Outcomes returns the resolution outcome of every raw import of path.
func (g *Graph) Outcomes(path string) []types.ResolveOutcome {
	id, ok := g.id(path)
	if !ok || g.outcomes[id] == nil {
		return nil
	}
	return slices.Clone(g.outcomes[id])
}

// Unresolved returns the not-found outcomes of every file, keyed by path.
func (g *Graph) Unresolved() map[string][]types.ResolveOutcome {
	out := make(map[string][]types.ResolveOutcome)
	for i, outcomes := range g.outcomes {
		for _, o := range outcomes {
			if !o.Found() {
				out[g.paths[i]] = append(out[g.paths[i]], o)
			}
		}
	}
	return out
}

// IsHub reports whether path is imported by at least threshold files.
// Unknown files are not hubs.
func (g *Graph) IsHub(path string, threshold int) bool {
	id, ok := g.id(path)
	if !ok {
		return false
	}
	return len(g.in[id]) >= threshold
}

// HubFiles lists files with in-degree >= threshold, most imported first,
// ties by path.
func (g *Graph) HubFiles(threshold int) []types.HubFile {
	var out []types.HubFile
	for i := range g.paths {
		in, outDeg := len(g.in[i]), len(g.out[i])
		if in < threshold {
			continue
		}
		out = append(out, types.HubFile{
			Path:      g.paths[i],
			InDegree:  in,
			OutDegree: outDeg,
			Level:     string(rank.ClassifyHub(in)),
			HubScore:  rank.HubScore(in, outDeg),
		})
	}
	slices.SortFunc(out, func(a, b types.HubFile) int {
		if a.InDegree != b.InDegree {
			return b.InDegree - a.InDegree
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Connected returns every file path imports or is imported by, sorted,
// excluding path itself.
func (g *Graph) Connected(path string) []string {
	id, ok := g.id(path)
	if !ok {
		return nil
	}
	set := make(map[NodeID]struct{}, len(g.out[id])+len(g.in[id]))
	for _, n := range g.out[id] {
		set[n] = struct{}{}
	}
	for _, n := range g.in[id] {
		set[n] = struct{}{}
	}
	delete(set, id)

	ids := make([]NodeID, 0, len(set))
	for n := range set {
		ids = append(ids, n)
	}
	slices.Sort(ids)
	return g.pathsOf(ids)
}

// DependencyChain returns what path imports, transitively, up to depth
// levels. A file already on the current branch appears as a leaf marked
// Cycle. Unknown files yield false.
func (g *Graph) DependencyChain(path string, depth int) (types.ChainNode, bool) {
	return g.chain(path, depth, g.out)
}

// ImporterChain returns what imports path, transitively, up to depth
// levels.
func (g *Graph) ImporterChain(path string, depth int) (types.ChainNode, bool) {
	return g.chain(path, depth, g.in)
}

func (g *Graph) chain(path string, depth int, adj [][]NodeID) (types.ChainNode, bool) {
	id, ok := g.id(path)
	if !ok {
		return types.ChainNode{}, false
	}
	return g.walk(id, depth, adj, map[NodeID]bool{}), true
}

// walk expands id. visited holds the nodes on the path from the root and
// is copied per branch, so siblings may share descendants.
func (g *Graph) walk(id NodeID, remaining int, adj [][]NodeID, visited map[NodeID]bool) types.ChainNode {
	node := types.ChainNode{Path: g.paths[id]}
	if remaining <= 0 {
		return node
	}

	branch := make(map[NodeID]bool, len(visited)+1)
	for k := range visited {
		branch[k] = true
	}
	branch[id] = true

	for _, next := range adj[id] {
		if branch[next] {
			node.Children = append(node.Children, types.ChainNode{Path: g.paths[next], Cycle: true})
			continue
		}
		node.Children = append(node.Children, g.walk(next, remaining-1, adj, branch))
	}
	return node
}

// CriticalPaths returns the topN files by importance score.
func (g *Graph) CriticalPaths(topN int) []types.RankedFile {
	return rank.CriticalPaths(g.paths, g.scores, topN)
}

// Score returns the importance score of path.
func (g *Graph) Score(path string) (float64, bool) {
	id, ok := g.id(path)
	if !ok || int(id) >= len(g.scores) {
		return 0, false
	}
	return g.scores[id], true
}
