package resolve

import (
	"path"
	"strings"
)

// DefaultLanguage is the tag used when a file's language is unknown.
const DefaultLanguage = "default"

// languageMap maps file extensions to language tags.
var languageMap = map[string]string{
	// Python
	".py":  "python",
	".pyw": "python",
	".pyi": "python",

	// Go
	".go": "go",

	// JavaScript/TypeScript
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".mts": "typescript",
	".cts": "typescript",

	// Rust
	".rs": "rust",

	// JVM
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".scala": "scala",

	// Others
	".rb":  "ruby",
	".php": "php",
}

// DetectLanguage returns the language tag for a file path based on its
// extension, or DefaultLanguage.
func DetectLanguage(filePath string) string {
	if strings.HasSuffix(filePath, ".d.ts") {
		return "typescript"
	}
	if lang, ok := languageMap[strings.ToLower(path.Ext(filePath))]; ok {
		return lang
	}
	return DefaultLanguage
}

// extensions lists the file extensions tried, in order, when an import
// names a path without one.
var extensions = map[string][]string{
	DefaultLanguage: {".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".rs", ".rb", ".java"},
	"typescript":    {".ts", ".tsx", ".d.ts", ".js", ".jsx"},
	"javascript":    {".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
	"python":        {".py", ".pyi"},
	"go":            {".go"},
	"rust":          {".rs"},
	"java":          {".java"},
	"kotlin":        {".kt", ".kts"},
	"scala":         {".scala"},
	"ruby":          {".rb"},
	"php":           {".php"},
}

// indexFiles lists the files that stand in for a directory import.
var indexFiles = map[string][]string{
	DefaultLanguage: {"index.ts", "index.tsx", "index.js", "index.jsx", "__init__.py", "mod.rs"},
	"typescript":    {"index.ts", "index.tsx", "index.d.ts", "index.js"},
	"javascript":    {"index.js", "index.jsx", "index.mjs", "index.ts"},
	"python":        {"__init__.py", "__init__.pyi"},
	"go":            {},
	"rust":          {"mod.rs"},
	"java":          {},
	"kotlin":        {},
	"scala":         {},
	"ruby":          {},
	"php":           {"index.php"},
}

// Extensions returns the extension list for lang.
func Extensions(lang string) []string {
	if exts, ok := extensions[lang]; ok {
		return exts
	}
	return extensions[DefaultLanguage]
}

// IndexFiles returns the implicit-index file names for lang.
func IndexFiles(lang string) []string {
	if files, ok := indexFiles[lang]; ok {
		return files
	}
	return indexFiles[DefaultLanguage]
}

// extRank orders a file by the position of its extension in lang's list;
// unlisted extensions sort last.
func extRank(lang, file string) int {
	exts := Extensions(lang)
	for i, ext := range exts {
		if strings.HasSuffix(file, ext) {
			return i
		}
	}
	return len(exts)
}

// dottedLanguages write module paths with '.' separators.
var dottedLanguages = map[string]bool{
	"python": true,
	"java":   true,
	"kotlin": true,
	"scala":  true,
}

// packageDirLanguages import whole directories rather than files.
var packageDirLanguages = map[string]bool{
	"go": true,
}
