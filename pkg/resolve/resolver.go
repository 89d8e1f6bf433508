// Package resolve maps raw import strings to project files. A Resolver
// tries a fixed sequence of strategies (relative path, alias, module
// prefix, exact path, unique suffix) against a fileindex.Index and reports
// which one succeeded along with every candidate path it tried.
package resolve

import (
	"path"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/alias"
	"github.com/efrenbl/code-navigator/pkg/fileindex"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Confidence assigned per outcome kind.
const (
	ConfidenceExact         = 1.0
	ConfidenceModulePrefix  = 0.95
	ConfidenceImplicitIndex = 0.9
	ConfidenceMultiMatch    = 0.8
	ConfidenceSuffix        = 0.6
)

// rustModuleRoots are files whose module directory is their own directory.
var rustModuleRoots = map[string]bool{
	"mod.rs":  true,
	"lib.rs":  true,
	"main.rs": true,
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithModulePrefix enables the module-prefix strategy for the project's
// own module identifier (a Go module path, a Python package name, ...).
func WithModulePrefix(prefix string) Option {
	return func(r *Resolver) {
		r.modulePrefix = strings.TrimSpace(prefix)
	}
}

// WithCache memoizes outcomes in an LRU of the given size.
func WithCache(size int) Option {
	return func(r *Resolver) {
		if size <= 0 {
			return
		}
		if c, err := lru.New[string, types.ResolveOutcome](size); err == nil {
			r.cache = c
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver resolves imports against an immutable file index. It is safe
// for concurrent use.
type Resolver struct {
	index        *fileindex.Index
	aliases      *alias.Table
	modulePrefix string
	cache        *lru.Cache[string, types.ResolveOutcome]
	logger       log.Logger
}

// New creates a resolver. aliases may be nil.
func New(index *fileindex.Index, aliases *alias.Table, opts ...Option) *Resolver {
	r := &Resolver{
		index:   index,
		aliases: aliases,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the file index the resolver works on.
func (r *Resolver) Index() *fileindex.Index {
	return r.index
}

// ModulePrefix returns the configured module identifier.
func (r *Resolver) ModulePrefix() string {
	return r.modulePrefix
}

// attempt accumulates the candidate paths tried across strategies.
type attempt struct {
	candidates []string
	seen       map[string]struct{}
}

func (a *attempt) add(p string) {
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[p]; ok {
		return
	}
	a.seen[p] = struct{}{}
	a.candidates = append(a.candidates, p)
}

// hit is a successful path lookup.
type hit struct {
	path     string
	viaIndex bool
	multi    bool
}

// Resolve resolves one raw import appearing in source. language may be
// empty, in which case it is inferred from source's extension.
//
// Strategies, in order:
//  1. relative: "./x", "../x", Python ".x", Rust self::/super::
//  2. alias: every matching alias rule, targets in declared order
//  3. module-prefix: the project's own module identifier is stripped
//  4. exact: bare path, path+extension, extension-stripped match, index file
//  5. suffix: a unique file ending with the normalized path
func (r *Resolver) Resolve(source, raw, language string) types.ResolveOutcome {
	source = fileindex.Normalize(source)
	lang := language
	if lang == "" {
		lang = DetectLanguage(source)
	}
	raw = strings.Trim(strings.TrimSpace(raw), "\"'`")

	norm := Normalize(raw, lang)
	relative := isRelative(raw, norm)

	key := lang + "\x00" + raw
	if relative {
		key = lang + "\x00" + source + "\x00" + raw
	}
	if r.cache != nil {
		if o, ok := r.cache.Get(key); ok {
			return cloneOutcome(o)
		}
	}

	o := r.resolve(source, raw, norm, lang, relative)
	if r.cache != nil {
		r.cache.Add(key, cloneOutcome(o))
	}
	return o
}

// ResolveAll resolves every import of one file.
func (r *Resolver) ResolveAll(source string, imports []string, language string) []types.ResolveOutcome {
	out := make([]types.ResolveOutcome, 0, len(imports))
	for _, imp := range imports {
		out = append(out, r.Resolve(source, imp, language))
	}
	return out
}

func (r *Resolver) resolve(source, raw, norm, lang string, relative bool) types.ResolveOutcome {
	a := &attempt{}
	found := func(h hit, strategy types.Strategy, confidence float64) types.ResolveOutcome {
		if h.multi && confidence > ConfidenceMultiMatch {
			confidence = ConfidenceMultiMatch
		}
		return types.ResolveOutcome{
			Import:     raw,
			Path:       h.path,
			Strategy:   strategy,
			Candidates: a.candidates,
			Confidence: confidence,
		}
	}
	notFound := func(ambiguous []string) types.ResolveOutcome {
		return types.ResolveOutcome{
			Import:     raw,
			Strategy:   types.StrategyNotFound,
			Candidates: a.candidates,
			Ambiguous:  ambiguous,
		}
	}

	if raw == "" {
		return notFound(nil)
	}

	// A missing relative target can still be claimed by an alias or the
	// module prefix. Exact and suffix lookups are skipped for it since they
	// anchor at the project root.
	if relative {
		if h, ok := r.tryPath(r.relativeTarget(source, raw, norm, lang), lang, a); ok {
			return found(h, types.StrategyRelative, ConfidenceExact)
		}
	}

	if r.aliases != nil {
		for _, m := range r.aliases.Match(raw) {
			for _, candidate := range m.Candidates() {
				if h, ok := r.tryPath(candidate, lang, a); ok {
					return found(h, types.StrategyAlias, ConfidenceExact)
				}
			}
		}
	}

	if rest, ok := stripModulePrefix(raw, r.modulePrefix); ok {
		target := Normalize(rest, lang)
		if target == "" {
			target = "."
		}
		if h, ok := r.tryPath(target, lang, a); ok {
			return found(h, types.StrategyModulePrefix, ConfidenceModulePrefix)
		}
	}
	if relative {
		return notFound(nil)
	}

	if h, ok := r.tryPath(norm, lang, a); ok {
		if h.viaIndex {
			return found(h, types.StrategyImplicitIndex, ConfidenceImplicitIndex)
		}
		return found(h, types.StrategyExact, ConfidenceExact)
	}

	p, ambiguous := r.trySuffix(norm, lang, a)
	if p != "" {
		return found(hit{path: p}, types.StrategySuffix, ConfidenceSuffix)
	}
	if len(ambiguous) > 0 {
		r.logger.Debug("ambiguous import", "import", raw, "source", source, "matches", len(ambiguous))
	}
	return notFound(ambiguous)
}

// tryPath looks p up as a file: bare, with each extension, by
// extension-stripped path, then as a directory with an index file.
func (r *Resolver) tryPath(p, lang string, a *attempt) (hit, bool) {
	p = fileindex.Normalize(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return hit{}, false
	}

	if p != "." {
		a.add(p)
		if r.index.Has(p) {
			return hit{path: p}, true
		}

		for _, ext := range Extensions(lang) {
			c := p + ext
			a.add(c)
			if r.index.Has(c) {
				return hit{path: c}, true
			}
		}

		// TypeScript ESM imports name the emitted ".js" file.
		if lang == "typescript" {
			if ext := path.Ext(p); ext == ".js" || ext == ".jsx" || ext == ".mjs" || ext == ".cjs" {
				stem := strings.TrimSuffix(p, ext)
				for _, e := range Extensions(lang) {
					c := stem + e
					a.add(c)
					if r.index.Has(c) {
						return hit{path: c}, true
					}
				}
			}
		}

		if members := r.index.NoExt(p); len(members) > 0 {
			slices.SortFunc(members, func(x, y string) int {
				if d := extRank(lang, x) - extRank(lang, y); d != 0 {
					return d
				}
				return strings.Compare(x, y)
			})
			return hit{path: members[0], multi: len(members) > 1}, true
		}
	}

	for _, name := range IndexFiles(lang) {
		c := path.Join(p, name)
		a.add(c)
		if r.index.Has(c) {
			return hit{path: c, viaIndex: true}, true
		}
	}

	if packageDirLanguages[lang] {
		if only, ok := r.packageFile(p, lang); ok {
			return hit{path: only, viaIndex: true}, true
		}
	}

	return hit{}, false
}

// packageFile resolves a package directory holding a single non-test
// source file to that file.
func (r *Resolver) packageFile(dir, lang string) (string, bool) {
	var match string
	n := 0
	for _, f := range r.index.Dir(dir) {
		if DetectLanguage(f) != lang || strings.HasSuffix(f, "_test.go") {
			continue
		}
		match = f
		n++
	}
	return match, n == 1
}

// trySuffix looks for a single file ending with norm. Multi-member hits
// are collected and returned as ambiguous.
func (r *Resolver) trySuffix(norm, lang string, a *attempt) (string, []string) {
	norm = fileindex.Normalize(norm)
	if norm == "." || norm == ".." || strings.HasPrefix(norm, "../") {
		return "", nil
	}

	keys := []string{norm}
	for _, ext := range Extensions(lang) {
		keys = append(keys, norm+ext)
	}
	for _, name := range IndexFiles(lang) {
		keys = append(keys, path.Join(norm, name))
	}

	var ambiguous []string
	for _, k := range keys {
		a.add(k)
		switch m := r.index.Suffix(k); len(m) {
		case 0:
		case 1:
			return m[0], nil
		default:
			ambiguous = append(ambiguous, m...)
		}
	}

	slices.Sort(ambiguous)
	return "", slices.Compact(ambiguous)
}

// relativeTarget computes the project path a relative import points at.
func (r *Resolver) relativeTarget(source, raw, norm, lang string) string {
	base := path.Dir(source)
	if lang == "rust" && !rustModuleRoots[path.Base(source)] {
		base = path.Join(base, fileindex.StripExt(path.Base(source)))
	}

	// Python style: leading dots count package levels, the rest is dotted.
	if lang == "python" && strings.HasPrefix(raw, ".") && !strings.Contains(raw, "/") {
		dots := len(raw) - len(strings.TrimLeft(raw, "."))
		rest := strings.ReplaceAll(raw[dots:], ".", "/")
		return path.Join(climb(base, dots-1), rest)
	}

	segments := strings.Split(norm, "/")
	levels := 0
	i := 0
	for ; i < len(segments); i++ {
		switch segments[i] {
		case ".", "":
		case "..":
			levels++
		default:
			return path.Join(climb(base, levels), strings.Join(segments[i:], "/"))
		}
	}
	return climb(base, levels)
}

// climb walks up levels directories from dir, stopping at the project root.
func climb(dir string, levels int) string {
	for ; levels > 0 && dir != "." && dir != ""; levels-- {
		dir = path.Dir(dir)
	}
	if dir == "" {
		return "."
	}
	return dir
}

func isRelative(raw, norm string) bool {
	return strings.HasPrefix(raw, ".") ||
		norm == "." || norm == ".." ||
		strings.HasPrefix(norm, "./") || strings.HasPrefix(norm, "../")
}

// stripModulePrefix removes the project's module identifier from raw. The
// identifier must be followed by a separator or end the string, so
// "app" does not match "apple".
func stripModulePrefix(raw, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	rest := raw[len(prefix):]
	if rest == "" {
		return "", true
	}
	if !strings.HasPrefix(rest, "/") && !strings.HasPrefix(rest, ".") && !strings.HasPrefix(rest, "::") {
		return "", false
	}
	return strings.TrimLeft(rest, "/.:"), true
}

func cloneOutcome(o types.ResolveOutcome) types.ResolveOutcome {
	o.Candidates = slices.Clone(o.Candidates)
	o.Ambiguous = slices.Clone(o.Ambiguous)
	return o
}
