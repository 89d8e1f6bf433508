package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efrenbl/code-navigator/internal/dirty"
	"github.com/efrenbl/code-navigator/internal/snapshot"
	"github.com/efrenbl/code-navigator/pkg/types"
)

var fixture = map[string]string{
	"app/main.py":       "import app.config\nfrom app.util import helper\n",
	"app/util.py":       "from . import config\n\ndef helper():\n    return config\n",
	"app/config.py":     "DEBUG = True\n",
	"web/index.ts":      "import { get } from \"@/lib/api\";\nget();\n",
	"web/lib/api.ts":    "import { client } from \"./client\";\nexport const get = () => client;\n",
	"web/lib/client.ts": "export const client = {};\n",
	"tsconfig.json":     `{"compilerOptions": {"baseUrl": ".", "paths": {"@/*": ["web/*"]}}}`,
}

func writeFixture(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	for name, content := range fixture {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// run executes the CLI against root. Persistent flags are reset on every
// call since cobra keeps flag values between executions.
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(append([]string{
		"--root=" + root, "--log-level=silent", "--json=false", "--fresh=false",
	}, args...))
	err := RootCmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, root string, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, root, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestAnalyzeBuildsAndSaves(t *testing.T) {
	root := writeFixture(t)

	var output AnalyzeOutput
	runJSON(t, root, &output, "analyze", "--top", "3", "--no-save=false")

	assert.Equal(t, 6, output.Stats.TotalFiles)
	assert.Equal(t, 5, output.Stats.TotalEdges)
	assert.Equal(t, 0, output.Stats.Cycles)
	assert.Equal(t, map[string]int{"python": 3, "typescript": 3}, output.Stats.Languages)
	require.Len(t, output.CriticalPaths, 3)
	assert.Equal(t, "app/config.py", output.CriticalPaths[0].Path)

	assert.Equal(t, snapshot.DefaultPath(root), output.Snapshot)
	s, _, err := snapshot.Load(output.Snapshot)
	require.NoError(t, err)
	assert.Len(t, s.Files, 6)
}

func TestAnalyzeNoSave(t *testing.T) {
	root := writeFixture(t)

	out, err := run(t, root, "analyze", "--top", "0", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "Dependency Graph")
	assert.Contains(t, out, "app/config.py")
	assert.NotContains(t, out, "Snapshot saved")

	_, err = os.Stat(snapshot.DefaultPath(root))
	assert.True(t, os.IsNotExist(err))
}

func TestQueryCommands(t *testing.T) {
	root := writeFixture(t)
	_, err := run(t, root, "analyze", "--top", "0", "--no-save=false")
	require.NoError(t, err)

	t.Run("critical", func(t *testing.T) {
		var files []types.RankedFile
		runJSON(t, root, &files, "critical", "--top", "1")
		require.Len(t, files, 1)
		assert.Equal(t, "app/config.py", files[0].Path)
	})

	t.Run("hubs", func(t *testing.T) {
		var hubs []types.HubFile
		runJSON(t, root, &hubs, "hubs", "--threshold", "2")
		require.Len(t, hubs, 1)
		assert.Equal(t, "app/config.py", hubs[0].Path)
		assert.Equal(t, 2, hubs[0].InDegree)
		assert.Equal(t, "low", hubs[0].Level)
	})

	t.Run("importers", func(t *testing.T) {
		var output ChainOutput
		runJSON(t, root, &output, "importers", "app/config.py", "--depth", "2")
		assert.Equal(t, "app/config.py", output.Chain.Path)
		var paths []string
		output.Chain.Walk(func(n types.ChainNode, depth int) bool {
			if depth == 1 {
				paths = append(paths, n.Path)
			}
			return true
		})
		assert.Equal(t, []string{"app/main.py", "app/util.py"}, paths)
	})

	t.Run("deps tree", func(t *testing.T) {
		out, err := run(t, root, "deps", "web/index.ts", "--depth", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "└─ web/lib/api.ts")
		assert.Contains(t, out, "    └─ web/lib/client.ts")
	})

	t.Run("connected", func(t *testing.T) {
		var output ConnectedOutput
		runJSON(t, root, &output, "connected", "web/lib/api.ts")
		assert.Equal(t, []string{"web/lib/client.ts"}, output.Imports)
		assert.Equal(t, []string{"web/index.ts"}, output.Importers)
		assert.ElementsMatch(t, []string{"web/index.ts", "web/lib/client.ts"}, output.Connected)
	})

	t.Run("cycles", func(t *testing.T) {
		var cycles [][]string
		runJSON(t, root, &cycles, "cycles")
		assert.Empty(t, cycles)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := run(t, root, "deps", "missing.py", "--depth", "1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file not in graph")
	})
}

func TestQueryRebuildsStaleSnapshot(t *testing.T) {
	root := writeFixture(t)
	_, err := run(t, root, "analyze", "--top", "0", "--no-save=false")
	require.NoError(t, err)
	_, err = os.Stat(dirty.DefaultPath(root))
	require.NoError(t, err)

	var output ConnectedOutput
	runJSON(t, root, &output, "connected", "app/config.py")
	assert.Equal(t, []string{"app/main.py", "app/util.py"}, output.Importers)

	// A file added after analysis makes the snapshot stale.
	extra := filepath.Join(root, "app", "extra.py")
	require.NoError(t, os.WriteFile(extra, []byte("import app.config\n"), 0644))

	runJSON(t, root, &output, "connected", "app/config.py")
	assert.Equal(t, []string{"app/extra.py", "app/main.py", "app/util.py"}, output.Importers)

	s, _, err := snapshot.Load(snapshot.DefaultPath(root))
	require.NoError(t, err)
	assert.Len(t, s.Files, 7)

	require.NoError(t, os.Remove(extra))
	runJSON(t, root, &output, "connected", "app/config.py", "--fresh")
	assert.Equal(t, []string{"app/main.py", "app/util.py"}, output.Importers)
}

func TestQueryRebuildsAfterAliasChange(t *testing.T) {
	root := writeFixture(t)
	app := filepath.Join(root, "web", "app.ts")
	require.NoError(t, os.WriteFile(app, []byte("import { client } from \"#client\";\n"), 0644))
	_, err := run(t, root, "analyze", "--top", "0", "--no-save=false")
	require.NoError(t, err)

	var output ConnectedOutput
	runJSON(t, root, &output, "connected", "web/lib/client.ts")
	assert.Equal(t, []string{"web/lib/api.ts"}, output.Importers)

	// Only the alias document changes; every source file keeps its hash.
	tsconfig := `{"compilerOptions": {"baseUrl": ".", "paths": {"@/*": ["web/*"], "#client": ["web/lib/client.ts"]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(tsconfig), 0644))

	var status StatusOutput
	runJSON(t, root, &status, "status")
	assert.True(t, status.ConfigChanged)
	assert.True(t, status.Stale)
	assert.Empty(t, status.Changed)

	runJSON(t, root, &output, "connected", "web/lib/client.ts")
	assert.Equal(t, []string{"web/app.ts", "web/lib/api.ts"}, output.Importers)

	runJSON(t, root, &status, "status")
	assert.False(t, status.ConfigChanged)
	assert.False(t, status.Stale)
}

func TestStatus(t *testing.T) {
	root := writeFixture(t)
	_, err := run(t, root, "analyze", "--top", "0", "--no-save=false")
	require.NoError(t, err)

	var output StatusOutput
	runJSON(t, root, &output, "status")
	assert.Equal(t, 6, output.Tracked)
	assert.False(t, output.Stale)
	assert.Empty(t, output.Changed)
	assert.Empty(t, output.Removed)

	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "config.py"), []byte("DEBUG = False\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "extra.py"), []byte("import app.util\n"), 0644))
	require.NoError(t, os.Remove(filepath.Join(root, "web", "lib", "client.ts")))

	runJSON(t, root, &output, "status")
	assert.True(t, output.Stale)
	assert.Equal(t, []string{"app/config.py", "app/extra.py"}, output.Changed)
	assert.Equal(t, []string{"web/lib/client.ts"}, output.Removed)

	runJSON(t, root, &output, "status", "app/config.py", "app/main.py", "app/extra.py")
	require.Len(t, output.Files, 3)
	assert.Equal(t, "modified", output.Files[0].State)
	assert.Equal(t, "unchanged", output.Files[1].State)
	assert.Equal(t, "new", output.Files[2].State)
	assert.Len(t, output.Files[1].Hash, 64)

	out, err := run(t, root, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "removed    web/lib/client.ts")
	assert.Contains(t, out, "Snapshot is stale")

	_, err = run(t, root, "status", "missing.py")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	root := writeFixture(t)

	var outcome types.ResolveOutcome
	runJSON(t, root, &outcome, "resolve", "web/index.ts", "@/lib/api", "--lang=")
	assert.Equal(t, "web/lib/api.ts", outcome.Path)
	assert.Equal(t, types.StrategyAlias, outcome.Strategy)
	assert.Equal(t, 1.0, outcome.Confidence)

	runJSON(t, root, &outcome, "resolve", "app/util.py", ".config", "--lang=")
	assert.Equal(t, "app/config.py", outcome.Path)
	assert.Equal(t, types.StrategyRelative, outcome.Strategy)

	out, err := run(t, root, "resolve", "web/index.ts", "react", "--lang=")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "Candidates:")
}

func TestExportJSON(t *testing.T) {
	root := writeFixture(t)
	dest := filepath.Join(t.TempDir(), "graph.json")

	_, err := run(t, root, "export", "json", "--output", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var s types.GraphSnapshot
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, root, s.Root)
	assert.Len(t, s.Files, 6)
	assert.Equal(t, 5, s.Stats.TotalEdges)
}

func TestExportUnknownFormat(t *testing.T) {
	root := writeFixture(t)
	_, err := run(t, root, "export", "yaml", "--output=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestPrintChain(t *testing.T) {
	chain := types.ChainNode{
		Path: "a.py",
		Children: []types.ChainNode{
			{Path: "b.py", Children: []types.ChainNode{{Path: "a.py", Cycle: true}}},
			{Path: "c.py"},
		},
	}
	var buf bytes.Buffer
	printChain(&buf, chain)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"a.py",
		"  └─ b.py",
		"    └─ a.py (cycle)",
		"  └─ c.py",
	}, lines)
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, types.GraphStats{
		TotalFiles:     4,
		TotalEdges:     3,
		HubThreshold:   3,
		RankIterations: 12,
		RankConverged:  true,
		Languages:      map[string]int{"typescript": 1, "python": 3},
	})
	out := buf.String()
	assert.Contains(t, out, "Files:            4")
	assert.Contains(t, out, "12 iterations, converged")
	assert.Contains(t, out, "Languages:        python=3 typescript=1")
}

func TestSplitComma(t *testing.T) {
	assert.Equal(t, []string{"tsconfig.json", "jsconfig.json"}, splitComma(" tsconfig.json, ,jsconfig.json "))
	assert.Nil(t, splitComma(""))
	assert.NoError(t, validateFloat("0.85"))
	assert.Error(t, validateInt("ten"))
}
