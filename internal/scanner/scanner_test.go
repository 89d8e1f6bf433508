package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(files []File) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = f.Language
	}
	return out
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":                  "package main",
		"utils/helper.go":          "package utils",
		"README.md":                "# Test",
		"src/app.py":               "print('hello')",
		"src/index.js":             "console.log('hi')",
		"src/types.d.ts":           "export {}",
		".hidden/file.py":          "hidden = True",
		"node_modules/pkg/main.js": "module.exports = {}",
		"target/debug/build.rs":    "fn main() {}",
		".git/config":              "[core]",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	expected := map[string]string{
		"main.go":         "go",
		"utils/helper.go": "go",
		"src/app.py":      "python",
		"src/index.js":    "javascript",
		"src/types.d.ts":  "typescript",
	}
	found := paths(results)
	if len(found) != len(expected) {
		t.Errorf("Expected %d files, got %d: %v", len(expected), len(found), found)
	}
	for path, lang := range expected {
		if got, ok := found[path]; !ok {
			t.Errorf("Expected to find %s", path)
		} else if got != lang {
			t.Errorf("Expected %s to have language %s, got %s", path, lang, got)
		}
	}

	for i := 1; i < len(results); i++ {
		if results[i-1].Path >= results[i].Path {
			t.Errorf("Results not sorted: %s before %s", results[i-1].Path, results[i].Path)
		}
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".codenavignore": `# Ignore test files
*.test.js
# Ignore generated code
generated/
/scripts/
!scripts/keep.py
`,
		"app.js":                "",
		"app.test.js":           "",
		"main.go":               "",
		"generated/out.go":      "",
		"lib/generated/x.ts":    "",
		"scripts/tool.py":       "",
		"scripts/keep.py":       "",
		"lib/scripts/helper.py": "",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	found := paths(results)

	for _, want := range []string{"app.js", "main.go", "lib/scripts/helper.py"} {
		if _, ok := found[want]; !ok {
			t.Errorf("Expected to find %s", want)
		}
	}
	// scripts/ is pruned as a directory, so the negation never sees keep.py.
	for _, ignored := range []string{"app.test.js", "generated/out.go", "lib/generated/x.ts", "scripts/tool.py", "scripts/keep.py"} {
		if _, ok := found[ignored]; ok {
			t.Errorf("Expected %s to be ignored", ignored)
		}
	}
}

func TestScannerNestedIgnoreFileIsScoped(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"pkg/.codenavignore": "fixtures.py\n",
		"pkg/fixtures.py":    "",
		"pkg/core.py":        "",
		"fixtures.py":        "",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	found := paths(results)

	if _, ok := found["pkg/fixtures.py"]; ok {
		t.Error("Expected pkg/fixtures.py to be ignored by pkg/.codenavignore")
	}
	if _, ok := found["fixtures.py"]; !ok {
		t.Error("Nested ignore file must not apply outside its directory")
	}
	if _, ok := found["pkg/core.py"]; !ok {
		t.Error("Expected to find pkg/core.py")
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"visible.py":      "",
		".hidden/file.py": "",
		".eslintrc.js":    "",
	})

	opts := DefaultOptions()
	found := paths(mustScan(t, tmpDir, opts))
	if _, ok := found[".hidden/file.py"]; ok {
		t.Error("Should skip hidden directories when SkipHidden=true")
	}
	if _, ok := found[".eslintrc.js"]; ok {
		t.Error("Should skip hidden files when SkipHidden=true")
	}

	opts.SkipHidden = false
	found = paths(mustScan(t, tmpDir, opts))
	if _, ok := found[".eslintrc.js"]; !ok {
		t.Error("Should find .eslintrc.js when SkipHidden=false")
	}
	if _, ok := found[".hidden/file.py"]; !ok {
		t.Error("Should find .hidden/file.py when SkipHidden=false")
	}
}

func TestScannerLanguageFilter(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a.py":   "",
		"b.go":   "",
		"c.rb":   "",
		"d.yaml": "",
	})

	opts := DefaultOptions()
	opts.Languages = []string{"python", "go"}
	found := paths(mustScan(t, tmpDir, opts))
	if len(found) != 2 {
		t.Errorf("Expected 2 files, got %v", found)
	}
	if _, ok := found["c.rb"]; ok {
		t.Error("ruby should be filtered out")
	}
}

func TestScannerRootErrors(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file.go")
	if err := os.WriteFile(file, []byte("package x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Scan(file); err == nil {
		t.Error("Expected error when root is a file")
	}
}

func mustScan(t *testing.T, root string, opts Options) []File {
	t.Helper()
	files, err := New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return files
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		match   bool
	}{
		// Simple patterns
		{"*.js", "file.js", true},
		{"*.js", "dir/file.js", true},
		{"*.js", "file.txt", false},
		{"build/", "build/file.js", true},
		{"build/", "other/build/file.js", true},
		{"build/", "builder.js", false},
		{"build/", "build", false},

		// Anchored patterns
		{"/build/", "build/file.js", true},
		{"/build/", "src/build/file.js", false},
		{"docs/api", "docs/api/index.ts", true},
		{"docs/api", "site/docs/api/index.ts", false},

		// Glob patterns
		{"*.test.js", "app.test.js", true},
		{"*.test.js", "deep/app.test.js", true},
		{"src/*.js", "src/app.js", true},
		{"src/*.js", "src/deep/app.js", false},

		// Double asterisk
		{"**/test/**", "test/file.js", true},
		{"**/test/**", "src/test/file.js", true},
		{"**/test/**", "src/deep/test/file.js", true},
		{"**/test/**", "testing/file.js", false},

		// Question mark and classes
		{"file?.js", "file1.js", true},
		{"file?.js", "file12.js", false},
		{"v[12].py", "v1.py", true},
		{"v[12].py", "v3.py", false},

		// A negation still matches; the caller flips the verdict.
		{"!*.js", "file.js", true},
	}

	for _, tt := range tests {
		result := ParseIgnorePattern(tt.pattern).Match(tt.path)
		if result != tt.match {
			t.Errorf("Pattern %q matching %q: got %v, want %v", tt.pattern, tt.path, result, tt.match)
		}
	}
}

func TestIgnoreSetNegation(t *testing.T) {
	set := IgnoreSet{
		ParseIgnorePattern("*.py"),
		ParseIgnorePattern("!keep.py"),
	}
	if !set.Ignored("drop.py", false) {
		t.Error("drop.py should be ignored")
	}
	if set.Ignored("pkg/keep.py", false) {
		t.Error("keep.py should be re-included")
	}
	if set.Ignored("main.go", false) {
		t.Error("main.go matches nothing")
	}
}
