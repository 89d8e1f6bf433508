package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/efrenbl/code-navigator/pkg/types"
)

func sampleSnapshot() types.GraphSnapshot {
	return types.GraphSnapshot{
		Root:         "/src/app",
		ModulePrefix: "app",
		Stats: types.GraphStats{
			TotalFiles:     2,
			TotalEdges:     1,
			HubThreshold:   3,
			Languages:      map[string]int{"python": 2},
			RankIterations: 12,
			RankConverged:  true,
		},
		CriticalPaths: []types.RankedFile{
			{Path: "app/core.py", Score: 0.65},
			{Path: "app/main.py", Score: 0.35},
		},
		Files: []types.SourceFile{
			{
				Path:      "app/core.py",
				Language:  "python",
				Imports:   []string{"os"},
				Importers: []string{"app/main.py"},
				Score:     0.65,
				InDegree:  1,
			},
			{
				Path:            "app/main.py",
				Language:        "python",
				Imports:         []string{"app.core"},
				ResolvedImports: []string{"app/core.py"},
				Score:           0.35,
				OutDegree:       1,
			},
		},
		Outcomes: map[string][]types.ResolveOutcome{
			"app/core.py": {{
				Import:     "os",
				Strategy:   types.StrategyNotFound,
				Candidates: []string{"os.py", "os/__init__.py"},
			}},
			"app/main.py": {{
				Import:     "app.core",
				Path:       "app/core.py",
				Strategy:   types.StrategyExact,
				Candidates: []string{"app/core.py"},
				Confidence: 1.0,
			}},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "graph.msgpack")
	want := sampleSnapshot()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, Save(path, want))

	got, created, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, created.After(before), "created %v should be after %v", created, before)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.msgpack")
	first := sampleSnapshot()
	require.NoError(t, Save(path, first))

	second := sampleSnapshot()
	second.ModulePrefix = "renamed"
	require.NoError(t, Save(path, second))

	got, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.ModulePrefix)
}

func TestReadVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.Encode(&header{Magic: magic, Version: Version + 1}))
	require.NoError(t, enc.Encode(sampleSnapshot()))

	_, _, err := Read(&buf)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestReadGarbage(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("definitely not msgpack")))
	assert.ErrorIs(t, err, ErrNotSnapshot)

	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(&header{Magic: "other", Version: Version}))
	_, _, err = Read(&buf)
	assert.ErrorIs(t, err, ErrNotSnapshot)
}

func TestLoadMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.msgpack"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("proj", ".codenav", "graph.msgpack"), DefaultPath("proj"))
}
