// Package depgraph builds a file-level dependency graph from raw imports
// and answers structural queries over it: hubs, neighbours, bounded
// dependency and importer chains, statistics, cycles and importance
// ranking.
package depgraph

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/alias"
	"github.com/efrenbl/code-navigator/pkg/fileindex"
	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/resolve"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// DefaultHubThreshold is the in-degree at which a file counts as a hub.
const DefaultHubThreshold = 3

// NodeID indexes a file in the graph's arena. IDs follow sorted path order.
type NodeID uint32

// Options configures Build.
type Options struct {
	// Aliases is consulted by the resolver; nil disables the alias strategy.
	Aliases *alias.Table
	// ModulePrefix enables the module-prefix strategy.
	ModulePrefix string
	// Workers bounds concurrent resolution; 0 means GOMAXPROCS.
	Workers int
	// CacheSize sets the resolver's memo size; 0 disables it.
	CacheSize int
	// HubThreshold is used by Stats.
	HubThreshold int
	// Rank parameters for the final ranking step.
	Rank rank.Options
	// Logger receives build diagnostics.
	Logger log.Logger
}

// DefaultOptions returns build options with standard ranking parameters.
func DefaultOptions() Options {
	return Options{
		CacheSize:    4096,
		HubThreshold: DefaultHubThreshold,
		Rank:         rank.DefaultOptions(),
	}
}

// Graph is a directed file dependency graph stored as an arena of
// integer-indexed adjacency lists. It is immutable after Build except for
// re-ranking.
type Graph struct {
	paths    []string
	ids      map[string]NodeID
	language []string
	imports  [][]string
	outcomes [][]types.ResolveOutcome

	out [][]NodeID
	in  [][]NodeID

	scores  []float64
	rankRes rank.Result

	modulePrefix string
	hubThreshold int
}

// Build resolves every import of every file and assembles the graph.
//
// The file index is complete before any resolution starts. Resolution runs
// concurrently, each file writing its own slot; edges are then inserted
// sequentially. An edge is kept only when an import resolved to a single
// project file other than the importing file; repeated edges collapse.
// Ranking runs last, over the finished graph.
func Build(ctx context.Context, files []types.FileImports, opts Options) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	if opts.HubThreshold <= 0 {
		opts.HubThreshold = DefaultHubThreshold
	}

	g, err := newArena(files, logger)
	if err != nil {
		return nil, err
	}
	g.modulePrefix = opts.ModulePrefix
	g.hubThreshold = opts.HubThreshold

	resolver := resolve.New(
		fileindex.New(g.paths),
		opts.Aliases,
		resolve.WithModulePrefix(opts.ModulePrefix),
		resolve.WithCache(opts.CacheSize),
		resolve.WithLogger(logger),
	)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range g.paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g.outcomes[i] = resolver.ResolveAll(g.paths[i], g.imports[i], g.language[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("resolve imports: %w", err)
	}

	unresolved := 0
	for i, outcomes := range g.outcomes {
		for _, o := range outcomes {
			if !o.Found() {
				unresolved++
				continue
			}
			g.addEdge(NodeID(i), o.Path)
		}
	}
	g.sortAdjacency()

	logger.Debug("dependency graph built",
		"files", len(g.paths),
		"edges", g.EdgeCount(),
		"unresolved", unresolved,
	)

	g.Rank(opts.Rank)
	return g, nil
}

// newArena assigns IDs in sorted path order. Repeated paths keep the first
// entry.
func newArena(files []types.FileImports, logger log.Logger) (*Graph, error) {
	byPath := make(map[string]types.FileImports, len(files))
	for _, f := range files {
		p := fileindex.Normalize(f.Path)
		if p == "." || p == "" {
			continue
		}
		if _, dup := byPath[p]; dup {
			logger.Warn("duplicate file in input", "path", p)
			continue
		}
		f.Path = p
		byPath[p] = f
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	n := len(paths)
	g := &Graph{
		paths:    paths,
		ids:      make(map[string]NodeID, n),
		language: make([]string, n),
		imports:  make([][]string, n),
		outcomes: make([][]types.ResolveOutcome, n),
		out:      make([][]NodeID, n),
		in:       make([][]NodeID, n),
	}
	for i, p := range paths {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, fmt.Errorf("too many files for node id space: %w", err)
		}
		f := byPath[p]
		lang := f.Language
		if lang == "" {
			lang = resolve.DetectLanguage(p)
		}
		g.ids[p] = NodeID(id)
		g.language[i] = lang
		g.imports[i] = slices.Clone(f.Imports)
	}
	return g, nil
}

// addEdge links from to the file at target, dropping self edges,
// unknown targets and repeats.
func (g *Graph) addEdge(from NodeID, target string) {
	to, ok := g.ids[target]
	if !ok || to == from {
		return
	}
	if slices.Contains(g.out[from], to) {
		return
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
}

func (g *Graph) sortAdjacency() {
	for i := range g.out {
		slices.Sort(g.out[i])
		slices.Sort(g.in[i])
	}
}

// Rank recomputes importance scores with opts.
func (g *Graph) Rank(opts rank.Options) rank.Result {
	adj := rank.Adjacency{Out: make([][]uint32, len(g.out))}
	for i, targets := range g.out {
		row := make([]uint32, len(targets))
		for k, t := range targets {
			row[k] = uint32(t)
		}
		adj.Out[i] = row
	}
	g.rankRes = rank.Compute(adj, opts)
	g.scores = g.rankRes.Scores
	return g.rankRes
}

// RankInfo returns the result of the latest ranking.
func (g *Graph) RankInfo() rank.Result {
	return g.rankRes
}

// Len returns the number of files.
func (g *Graph) Len() int {
	return len(g.paths)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// ModulePrefix returns the module identifier the graph was built with.
func (g *Graph) ModulePrefix() string {
	return g.modulePrefix
}

// HubThreshold returns the threshold used by Stats.
func (g *Graph) HubThreshold() int {
	return g.hubThreshold
}

// Paths returns every file path, sorted.
func (g *Graph) Paths() []string {
	return slices.Clone(g.paths)
}

func (g *Graph) id(path string) (NodeID, bool) {
	id, ok := g.ids[fileindex.Normalize(path)]
	return id, ok
}

func (g *Graph) pathsOf(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.paths[id]
	}
	return out
}
