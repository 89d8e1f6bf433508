// Package alias implements path-alias tables: wildcard pattern rules that
// rewrite an import string into one or more candidate project paths, and
// loaders for tsconfig-style and pyproject alias documents.
package alias

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTooManyWildcards is returned for patterns with more than one '*'.
var ErrTooManyWildcards = errors.New("alias pattern may contain at most one '*'")

// Rule maps an import pattern to ordered target templates.
//
// Examples:
//   - "@/*"      -> ["src/*"]           "@/lib/x" captures "lib/x"
//   - "~utils"   -> ["src/utils/index"] exact match only
//   - "#*.gen"   -> ["gen/*"]           prefix "#" and suffix ".gen"
type Rule struct {
	Pattern string   `json:"pattern"`
	Targets []string `json:"targets"`

	prefix   string
	suffix   string
	wildcard bool
}

// NewRule validates pattern and splits it around its wildcard.
func NewRule(pattern string, targets []string) (Rule, error) {
	if pattern == "" {
		return Rule{}, fmt.Errorf("empty alias pattern")
	}
	switch strings.Count(pattern, "*") {
	case 0:
		return Rule{Pattern: pattern, Targets: append([]string(nil), targets...)}, nil
	case 1:
		i := strings.IndexByte(pattern, '*')
		return Rule{
			Pattern:  pattern,
			Targets:  append([]string(nil), targets...),
			prefix:   pattern[:i],
			suffix:   pattern[i+1:],
			wildcard: true,
		}, nil
	default:
		return Rule{}, fmt.Errorf("%q: %w", pattern, ErrTooManyWildcards)
	}
}

// Wildcard reports whether the pattern contains '*'.
func (r Rule) Wildcard() bool {
	return r.wildcard
}

// Match tests s against the pattern and returns the wildcard capture.
// Non-wildcard patterns require equality and capture "".
func (r Rule) Match(s string) (string, bool) {
	if !r.wildcard {
		return "", s == r.Pattern
	}
	if len(s) < len(r.prefix)+len(r.suffix) {
		return "", false
	}
	if !strings.HasPrefix(s, r.prefix) || !strings.HasSuffix(s, r.suffix) {
		return "", false
	}
	return s[len(r.prefix) : len(s)-len(r.suffix)], true
}

// Apply substitutes capture into every target, in declared order. The
// first '*' of a target is replaced; a target without one gets the
// capture appended when it is non-empty.
func (r Rule) Apply(capture string) []string {
	out := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		switch {
		case strings.Contains(t, "*"):
			out = append(out, strings.Replace(t, "*", capture, 1))
		case capture != "":
			out = append(out, strings.TrimSuffix(t, "/")+"/"+capture)
		default:
			out = append(out, t)
		}
	}
	return out
}
