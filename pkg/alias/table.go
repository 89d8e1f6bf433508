package alias

import (
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Match is a rule that accepted an import, with its wildcard capture.
type Match struct {
	Rule    Rule
	Capture string
}

// Candidates returns the substituted targets of the match.
func (m Match) Candidates() []string {
	return m.Rule.Apply(m.Capture)
}

// Table is an ordered set of alias rules. It is safe for concurrent use;
// the resolver only reads it.
type Table struct {
	mu     sync.RWMutex
	rules  []Rule
	byPat  map[string]int
	base   string
	root   string
	loaded []string
}

// NewTable creates an empty table. root is the project directory used to
// express configuration-document locations as project-relative anchors;
// it may be empty when document paths are already project-relative.
func NewTable(root string) *Table {
	return &Table{
		byPat: make(map[string]int),
		root:  root,
	}
}

// SetBase sets the anchor applied to targets registered afterwards.
func (t *Table) SetBase(base string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.base = cleanAnchor(base)
}

// Base returns the current anchor path.
func (t *Table) Base() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.base
}

// AddRule registers pattern with targets. Targets that are neither
// absolute nor dot-prefixed are joined onto the current base. Registering
// an existing pattern replaces its targets and keeps its position.
func (t *Table) AddRule(pattern string, targets ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addLocked(pattern, targets, t.base)
}

func (t *Table) addLocked(pattern string, targets []string, base string) error {
	anchored := make([]string, 0, len(targets))
	for _, target := range targets {
		anchored = append(anchored, anchorTarget(base, target))
	}

	rule, err := NewRule(pattern, anchored)
	if err != nil {
		return err
	}

	if i, ok := t.byPat[pattern]; ok {
		t.rules[i] = rule
		return nil
	}
	t.byPat[pattern] = len(t.rules)
	t.rules = append(t.rules, rule)
	return nil
}

// Match returns every rule accepting s, in registration order. All of
// them are returned because a rule only succeeds once one of its targets
// is found in the project, which the caller decides.
func (t *Table) Match(s string) []Match {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Match
	for _, r := range t.rules {
		if capture, ok := r.Match(s); ok {
			out = append(out, Match{Rule: r, Capture: capture})
		}
	}
	return out
}

// Rules returns a copy of the registered rules.
func (t *Table) Rules() []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Rule(nil), t.rules...)
}

// Len returns the number of rules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rules)
}

// Sources lists the configuration documents loaded so far.
func (t *Table) Sources() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.loaded...)
}

// Clear removes every rule and resets the base.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = nil
	t.byPat = make(map[string]int)
	t.base = ""
	t.loaded = nil
}

// register adds a batch of already-anchored rules atomically: either every
// rule is added or the table is left untouched. base becomes the anchor
// for rules added later through AddRule.
func (t *Table) register(entries []entry, base, source string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range entries {
		if _, err := NewRule(e.pattern, e.targets); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := t.addLocked(e.pattern, e.targets, ""); err != nil {
			return err
		}
	}
	t.base = base
	t.loaded = append(t.loaded, source)
	return nil
}

// rel expresses a filesystem directory relative to the table root.
func (t *Table) rel(dir string) string {
	if t.root != "" {
		absRoot, err1 := filepath.Abs(t.root)
		absDir, err2 := filepath.Abs(dir)
		if err1 == nil && err2 == nil {
			if r, err := filepath.Rel(absRoot, absDir); err == nil {
				dir = r
			}
		}
	}
	return cleanAnchor(filepath.ToSlash(dir))
}

type entry struct {
	pattern string
	targets []string
}

func anchorTarget(base, target string) string {
	target = filepath.ToSlash(target)
	if base == "" || strings.HasPrefix(target, "/") || strings.HasPrefix(target, ".") {
		return target
	}
	return path.Join(base, target)
}

// anchorAll joins every non-absolute target, dot-prefixed ones included,
// onto base. Used for document rules, whose targets are relative to the
// document's anchor.
func anchorAll(base string, targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		target = filepath.ToSlash(target)
		if !strings.HasPrefix(target, "/") {
			target = path.Join(base, target)
		}
		out = append(out, target)
	}
	return out
}

func cleanAnchor(base string) string {
	if base == "" {
		return ""
	}
	base = path.Clean(filepath.ToSlash(base))
	if base == "." {
		return ""
	}
	return base
}
