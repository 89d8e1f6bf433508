// Package fileindex provides a lookup structure over a project's file list.
// It maps each file under several keys so that import strings can be
// matched by exact path, by path without extension, by basename, by parent
// directory, or by any trailing path suffix.
package fileindex

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Index is built once from a file list and is read-only afterwards, so it
// can be shared by concurrent resolvers without locking.
//
// For "src/app/core/config.ts" the keys are:
//   - exact:    "src/app/core/config.ts"
//   - noExt:    "src/app/core/config"
//   - basename: "config"
//   - dir:      "src/app/core"
//   - suffix:   "app/core/config.ts", "app/core/config", "core/config.ts",
//     "core/config", "config.ts", "config"
type Index struct {
	paths []string

	exact    map[string]struct{}
	noExt    map[string][]string
	basename map[string][]string
	dir      map[string][]string
	suffix   map[string][]string
}

// New builds an index over paths. Paths are normalized to cleaned slash
// form; duplicates are ignored.
func New(paths []string) *Index {
	idx := &Index{
		exact:    make(map[string]struct{}, len(paths)),
		noExt:    make(map[string][]string, len(paths)),
		basename: make(map[string][]string),
		dir:      make(map[string][]string),
		suffix:   make(map[string][]string, len(paths)*4),
	}
	for _, p := range paths {
		idx.add(Normalize(p))
	}
	slices.Sort(idx.paths)
	return idx
}

// Normalize converts a path to the index's key form: slash separated
// (backslashes included), cleaned, with no leading "./".
func Normalize(p string) string {
	p = path.Clean(strings.ReplaceAll(filepath.ToSlash(p), `\`, "/"))
	return strings.TrimPrefix(p, "./")
}

// StripExt removes the final extension of p, if any. A dotfile name such
// as ".env" is left whole.
func StripExt(p string) string {
	ext := path.Ext(p)
	if ext == "" || ext == p || strings.HasSuffix(p, "/"+ext) {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

func (idx *Index) add(p string) {
	if p == "" || p == "." {
		return
	}
	if _, dup := idx.exact[p]; dup {
		return
	}
	idx.exact[p] = struct{}{}
	idx.paths = append(idx.paths, p)

	stem := StripExt(p)
	idx.noExt[stem] = append(idx.noExt[stem], p)

	base := path.Base(stem)
	idx.basename[base] = append(idx.basename[base], p)

	d := path.Dir(p)
	idx.dir[d] = append(idx.dir[d], p)

	parts := strings.Split(p, "/")
	for i := 1; i < len(parts); i++ {
		s := strings.Join(parts[i:], "/")
		idx.suffix[s] = append(idx.suffix[s], p)
		if ss := StripExt(s); ss != s {
			idx.suffix[ss] = append(idx.suffix[ss], p)
		}
	}
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return len(idx.paths)
}

// Paths returns every indexed path, sorted.
func (idx *Index) Paths() []string {
	return slices.Clone(idx.paths)
}

// Has reports whether p is an indexed file.
func (idx *Index) Has(p string) bool {
	_, ok := idx.exact[p]
	return ok
}

// Exact returns p itself when it is indexed.
func (idx *Index) Exact(p string) []string {
	if idx.Has(p) {
		return []string{p}
	}
	return nil
}

// NoExt returns files whose extension-stripped path equals p.
func (idx *Index) NoExt(p string) []string {
	return slices.Clone(idx.noExt[p])
}

// Basename returns files whose extension-stripped name equals name.
func (idx *Index) Basename(name string) []string {
	return slices.Clone(idx.basename[name])
}

// Dir returns files directly inside directory d ("." for the root).
func (idx *Index) Dir(d string) []string {
	return slices.Clone(idx.dir[d])
}

// Suffix returns files that end with the path suffix s at a segment
// boundary, with or without extension. A file's full path is not one of
// its own suffixes.
func (idx *Index) Suffix(s string) []string {
	return slices.Clone(idx.suffix[s])
}
