// Package rank computes file importance over a dependency graph with a
// PageRank-style power iteration, and classifies hub files by in-degree.
package rank

import (
	"math"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/efrenbl/code-navigator/pkg/types"
)

// Defaults for Options.
const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

// parallelThreshold is the node count from which an iteration is split
// across workers.
const parallelThreshold = 2048

// Options configures Compute.
type Options struct {
	// Damping is the probability of following an edge (0 < d < 1).
	Damping float64
	// MaxIterations bounds the power iteration.
	MaxIterations int
	// Tolerance is the L1 difference between iterations that counts as
	// converged.
	Tolerance float64
	// Workers bounds per-iteration parallelism; 0 means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the standard PageRank parameters.
func DefaultOptions() Options {
	return Options{
		Damping:       DefaultDamping,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

func (o Options) withDefaults() Options {
	if o.Damping <= 0 || o.Damping >= 1 {
		o.Damping = DefaultDamping
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Adjacency is a graph in arena form: node i's outgoing edges are Out[i],
// each an index into the same arena.
type Adjacency struct {
	Out [][]uint32
}

// Len returns the node count.
func (a Adjacency) Len() int {
	return len(a.Out)
}

// Edges returns the edge count.
func (a Adjacency) Edges() int {
	n := 0
	for _, out := range a.Out {
		n += len(out)
	}
	return n
}

// Result holds the scores and how the iteration ended.
type Result struct {
	// Scores is indexed like the adjacency and sums to 1.
	Scores []float64
	// Iterations is the number of iterations actually run.
	Iterations int
	// Converged is false when MaxIterations was reached first.
	Converged bool
}

// Compute runs the power iteration. Each step gives every node the
// teleport share (1-d)/N, an equal part of the score held by nodes without
// outgoing edges, and d times the score of each importer divided by that
// importer's out-degree.
func Compute(adj Adjacency, opts Options) Result {
	opts = opts.withDefaults()
	n := adj.Len()
	if n == 0 {
		return Result{Scores: []float64{}, Converged: true}
	}

	uniform := 1.0 / float64(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = uniform
	}
	if adj.Edges() == 0 {
		return Result{Scores: scores, Converged: true}
	}

	in := make([][]uint32, n)
	outDeg := make([]float64, n)
	var dangling []uint32
	for src, targets := range adj.Out {
		outDeg[src] = float64(len(targets))
		if len(targets) == 0 {
			dangling = append(dangling, uint32(src))
		}
		for _, dst := range targets {
			in[dst] = append(in[dst], uint32(src))
		}
	}

	d := opts.Damping
	teleport := (1 - d) / float64(n)
	next := make([]float64, n)

	res := Result{}
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		var danglingSum float64
		for _, j := range dangling {
			danglingSum += scores[j]
		}
		base := teleport + d*danglingSum/float64(n)

		step := func(lo, hi int) {
			for i := lo; i < hi; i++ {
				sum := 0.0
				for _, j := range in[i] {
					sum += scores[j] / outDeg[j]
				}
				next[i] = base + d*sum
			}
		}
		forChunks(n, opts.Workers, step)

		diff := 0.0
		for i := range next {
			diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		res.Iterations = iter

		if diff < opts.Tolerance {
			res.Converged = true
			break
		}
	}

	normalize(scores)
	res.Scores = scores
	return res
}

// forChunks runs fn over [0,n) split into contiguous chunks, in parallel
// for large graphs. Chunks write disjoint ranges.
func forChunks(n, workers int, fn func(lo, hi int)) {
	if n < parallelThreshold || workers <= 1 {
		fn(0, n)
		return
	}
	size := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

func normalize(scores []float64) {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return
	}
	for i := range scores {
		scores[i] /= total
	}
}

// CriticalPaths returns the topN files by score, highest first, ties by
// path. topN <= 0 returns every file.
func CriticalPaths(paths []string, scores []float64, topN int) []types.RankedFile {
	out := make([]types.RankedFile, 0, len(paths))
	for i, p := range paths {
		s := 0.0
		if i < len(scores) {
			s = scores[i]
		}
		out = append(out, types.RankedFile{Path: p, Score: s})
	}
	slices.SortFunc(out, func(a, b types.RankedFile) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Path, b.Path)
	})
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}
