package extract

import (
	"regexp"
	"strings"
)

// linePatterns extract imports for languages without a grammar here. The
// first capture group is the import string.
var linePatterns = map[string][]*regexp.Regexp{
	"java": {
		regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`),
	},
	"kotlin": {
		regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\.\*)?)`),
	},
	"scala": {
		regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`),
	},
	"ruby": {
		regexp.MustCompile(`(?m)^\s*require\s*\(?\s*['"]([^'"]+)['"]`),
	},
	"php": {
		regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)`),
		regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`),
	},
}

var (
	rubyRelative = regexp.MustCompile(`(?m)^\s*require_relative\s*\(?\s*['"]([^'"]+)['"]`)

	genericPatterns = []*regexp.Regexp{
		regexp.MustCompile(`import\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require\s*\(?\s*['"]([^'"]+)['"]`),
		regexp.MustCompile(`from\s+['"]([^'"]+)['"]`),
	}
)

func fallbackImports(lang string, content []byte) []string {
	patterns, ok := linePatterns[lang]
	if !ok {
		patterns = genericPatterns
	}

	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllSubmatch(content, -1) {
			imp := string(m[1])
			// Wildcard imports name their package.
			imp = strings.TrimSuffix(strings.TrimSuffix(imp, "*"), ".")
			out = append(out, imp)
		}
	}
	if lang == "ruby" {
		for _, m := range rubyRelative.FindAllSubmatch(content, -1) {
			imp := string(m[1])
			if !strings.HasPrefix(imp, ".") {
				imp = "./" + imp
			}
			out = append(out, imp)
		}
	}
	return out
}
