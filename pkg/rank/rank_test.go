package rank

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efrenbl/code-navigator/pkg/types"
)

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestComputeEmpty(t *testing.T) {
	res := Compute(Adjacency{}, DefaultOptions())
	assert.Empty(t, res.Scores)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
}

func TestComputeNoEdgesIsUniform(t *testing.T) {
	res := Compute(Adjacency{Out: make([][]uint32, 4)}, DefaultOptions())
	require.Len(t, res.Scores, 4)
	for _, s := range res.Scores {
		assert.InDelta(t, 0.25, s, 1e-12)
	}
	assert.Equal(t, 0, res.Iterations)
	assert.True(t, res.Converged)
}

func TestComputeHubRanksFirst(t *testing.T) {
	// a, b and c all import config (index 3); config imports nothing.
	adj := Adjacency{Out: [][]uint32{{3}, {3}, {3}, {}}}
	res := Compute(adj, DefaultOptions())

	require.Len(t, res.Scores, 4)
	assert.True(t, res.Converged)
	assert.InDelta(t, 1.0, sum(res.Scores), 1e-9)
	for i := 0; i < 3; i++ {
		assert.Greater(t, res.Scores[3], res.Scores[i])
	}

	top := CriticalPaths([]string{"a.ext", "b.ext", "c.ext", "config.ext"}, res.Scores, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "config.ext", top[0].Path)
}

func TestComputeCycleIsSymmetric(t *testing.T) {
	res := Compute(Adjacency{Out: [][]uint32{{1}, {0}}}, DefaultOptions())
	assert.InDelta(t, 0.5, res.Scores[0], 1e-9)
	assert.InDelta(t, 0.5, res.Scores[1], 1e-9)
}

func TestComputeKnownValues(t *testing.T) {
	// 0 -> 1, 1 -> 2, 2 -> 0, 0 -> 2.
	adj := Adjacency{Out: [][]uint32{{1, 2}, {2}, {0}}}
	res := Compute(adj, Options{Damping: 0.85, MaxIterations: 500, Tolerance: 1e-12})
	require.True(t, res.Converged)

	// Closed form for this graph.
	d := 0.85
	// x0 = (1-d)/3 + d*x2; x1 = (1-d)/3 + d*x0/2; x2 = (1-d)/3 + d*(x0/2 + x1)
	// solved numerically below by substitution.
	x0, x1, x2 := 1.0/3, 1.0/3, 1.0/3
	for i := 0; i < 10000; i++ {
		n0 := (1-d)/3 + d*x2
		n1 := (1-d)/3 + d*x0/2
		n2 := (1-d)/3 + d*(x0/2+x1)
		x0, x1, x2 = n0, n1, n2
	}
	assert.InDelta(t, x0, res.Scores[0], 1e-6)
	assert.InDelta(t, x1, res.Scores[1], 1e-6)
	assert.InDelta(t, x2, res.Scores[2], 1e-6)
}

func TestComputeIterationCap(t *testing.T) {
	adj := Adjacency{Out: [][]uint32{{1}, {2}, {}}}
	res := Compute(adj, Options{Damping: 0.85, MaxIterations: 1, Tolerance: 1e-15})

	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
	assert.InDelta(t, 1.0, sum(res.Scores), 1e-9)
}

func TestComputeInvalidOptionsFallBack(t *testing.T) {
	adj := Adjacency{Out: [][]uint32{{1}, {}}}
	got := Compute(adj, Options{Damping: 3, MaxIterations: -1, Tolerance: 0})
	want := Compute(adj, DefaultOptions())
	assert.Equal(t, want.Scores, got.Scores)
	assert.Equal(t, want.Iterations, got.Iterations)
}

func TestComputeLargeRandomGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 5000
	adj := Adjacency{Out: make([][]uint32, n)}
	for i := 0; i < n; i++ {
		if rng.Intn(5) == 0 {
			continue // dangling
		}
		seen := map[uint32]bool{}
		for k := 0; k < 1+rng.Intn(4); k++ {
			j := uint32(rng.Intn(n))
			if int(j) == i || seen[j] {
				continue
			}
			seen[j] = true
			adj.Out[i] = append(adj.Out[i], j)
		}
	}

	parallel := Compute(adj, Options{Workers: 8})
	serial := Compute(adj, Options{Workers: 1})

	require.Len(t, parallel.Scores, n)
	assert.InDelta(t, 1.0, sum(parallel.Scores), 1e-9)
	for i, s := range parallel.Scores {
		assert.GreaterOrEqual(t, s, 0.0)
		if math.Abs(s-serial.Scores[i]) > 1e-12 {
			t.Fatalf("score %d differs between parallel and serial runs: %v vs %v", i, s, serial.Scores[i])
		}
	}
	assert.Equal(t, serial.Iterations, parallel.Iterations)
}

func TestCriticalPathsOrdering(t *testing.T) {
	paths := []string{"b.go", "a.go", "c.go", "d.go"}
	scores := []float64{0.3, 0.3, 0.1, 0.3}

	got := CriticalPaths(paths, scores, 0)
	assert.Equal(t, []types.RankedFile{
		{Path: "a.go", Score: 0.3},
		{Path: "b.go", Score: 0.3},
		{Path: "d.go", Score: 0.3},
		{Path: "c.go", Score: 0.1},
	}, got)

	assert.Len(t, CriticalPaths(paths, scores, 2), 2)
	assert.Len(t, CriticalPaths(paths, scores, 10), 4)
	assert.Empty(t, CriticalPaths(nil, nil, 3))
}

func TestClassifyHub(t *testing.T) {
	tests := []struct {
		in   int
		want HubLevel
	}{
		{0, HubNone},
		{1, HubNone},
		{2, HubLow},
		{3, HubMedium},
		{4, HubMedium},
		{5, HubHigh},
		{7, HubHigh},
		{8, HubCritical},
		{100, HubCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHub(tt.in), "in-degree %d", tt.in)
	}
}

func TestHubScore(t *testing.T) {
	assert.Equal(t, 0.0, HubScore(0, 10))
	assert.InDelta(t, 3.0, HubScore(3, 0), 1e-12)
	assert.InDelta(t, 3*(1+math.Log(3)), HubScore(3, 2), 1e-12)
	assert.Greater(t, HubScore(3, 5), HubScore(3, 1))
}
