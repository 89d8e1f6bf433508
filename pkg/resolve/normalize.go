package resolve

import (
	"strings"
)

// Normalize rewrites a raw import string into slash-path form for lang.
// Relative-marker imports (leading '.') are returned untouched.
//
// Examples:
//   - python  "app.core.config"       -> "app/core/config"
//   - rust    "crate::utils::helpers" -> "utils/helpers"
//   - rust    "super::super::model"   -> "../../model"
//   - rust    "self::parser"          -> "./parser"
//   - php     `App\Models\User`       -> "App/Models/User"
//   - any     "'@/lib/x'"             -> "@/lib/x"
func Normalize(raw, lang string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'`")
	if s == "" || strings.HasPrefix(s, ".") {
		return s
	}

	switch {
	case lang == "rust":
		return normalizeRust(s)
	case dottedLanguages[lang] && !strings.Contains(s, "/"):
		s = strings.TrimSuffix(s, ".*")
		return strings.ReplaceAll(s, ".", "/")
	case lang == "php":
		return strings.TrimPrefix(strings.ReplaceAll(s, `\`, "/"), "/")
	case strings.Contains(s, "::"):
		return strings.ReplaceAll(s, "::", "/")
	}
	return strings.ReplaceAll(s, `\`, "/")
}

// normalizeRust maps a `use` path to a slash path. crate:: anchors at the
// crate root, self:: at the current module and each super:: climbs one
// module.
func normalizeRust(s string) string {
	parts := strings.Split(s, "::")

	prefix := ""
	switch parts[0] {
	case "crate":
		parts = parts[1:]
	case "self":
		prefix = "./"
		parts = parts[1:]
	case "super":
		n := 0
		for n < len(parts) && parts[n] == "super" {
			n++
		}
		prefix = strings.Repeat("../", n)
		parts = parts[n:]
	}

	rest := strings.Join(parts, "/")
	if rest == "" {
		return strings.TrimSuffix(prefix, "/")
	}
	return prefix + rest
}
