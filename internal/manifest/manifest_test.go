package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectModulePrefix(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		wantPrefix string
		wantSource Source
	}{
		{
			name:       "go.mod",
			files:      map[string]string{"go.mod": "module github.com/acme/app\n\ngo 1.22\n"},
			wantPrefix: "github.com/acme/app",
			wantSource: SourceGoMod,
		},
		{
			name:       "pyproject project table",
			files:      map[string]string{"pyproject.toml": "[project]\nname = \"my-service\"\n"},
			wantPrefix: "my_service",
			wantSource: SourcePyproject,
		},
		{
			name:       "pyproject poetry table",
			files:      map[string]string{"pyproject.toml": "[tool.poetry]\nname = \"legacy-app\"\n"},
			wantPrefix: "legacy_app",
			wantSource: SourcePyproject,
		},
		{
			name:       "cargo",
			files:      map[string]string{"Cargo.toml": "[package]\nname = \"fast-parse\"\nversion = \"0.1.0\"\n"},
			wantPrefix: "fast_parse",
			wantSource: SourceCargo,
		},
		{
			name:       "package.json",
			files:      map[string]string{"package.json": `{"name": "@acme/web", "version": "1.0.0"}`},
			wantPrefix: "@acme/web",
			wantSource: SourcePackage,
		},
		{
			name: "go.mod wins over package.json",
			files: map[string]string{
				"go.mod":       "module example.com/tool\n",
				"package.json": `{"name": "tool-ui"}`,
			},
			wantPrefix: "example.com/tool",
			wantSource: SourceGoMod,
		},
		{
			name: "broken manifest falls through",
			files: map[string]string{
				"pyproject.toml": "[project\nname = ",
				"package.json":   `{"name": "fallback"}`,
			},
			wantPrefix: "fallback",
			wantSource: SourcePackage,
		},
		{
			name:       "nothing",
			files:      map[string]string{"README.md": "# hi"},
			wantPrefix: "",
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
			}
			prefix, source := DetectModulePrefix(root)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}
