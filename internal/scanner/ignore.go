package scanner

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// IgnorePattern is a single gitignore-style pattern, scoped to the
// directory of the ignore file that declared it.
type IgnorePattern struct {
	raw      string
	glob     string
	base     string // slash path of the declaring directory, "" for root
	negate   bool
	dirOnly  bool
	anchored bool
}

// ParseIgnorePattern parses a pattern declared in the project root.
func ParseIgnorePattern(line string) IgnorePattern {
	return parseIgnorePattern(line, "")
}

func parseIgnorePattern(line, base string) IgnorePattern {
	p := IgnorePattern{raw: line, base: base}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	// A slash in the middle anchors the pattern to its ignore file.
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	p.glob = line
	return p
}

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.raw
}

// Match reports whether relPath (slash separated, relative to the project
// root) falls under the pattern. A path matches when it or one of its
// parent directories does.
func (p IgnorePattern) Match(relPath string) bool {
	return p.match(relPath, false)
}

func (p IgnorePattern) match(relPath string, isDir bool) bool {
	if p.base != "" {
		if !strings.HasPrefix(relPath, p.base+"/") {
			return false
		}
		relPath = strings.TrimPrefix(relPath, p.base+"/")
	}

	segs := strings.Split(relPath, "/")
	for i := 1; i <= len(segs); i++ {
		// The last segment is the entry itself; dir-only patterns skip it
		// unless it is a directory.
		if i == len(segs) && p.dirOnly && !isDir {
			break
		}
		var ok bool
		if p.anchored {
			ok, _ = doublestar.Match(p.glob, strings.Join(segs[:i], "/"))
		} else {
			ok, _ = doublestar.Match(p.glob, segs[i-1])
		}
		if ok {
			return true
		}
	}
	return false
}

// IgnoreSet is an ordered list of patterns; later patterns win.
type IgnoreSet []IgnorePattern

// Ignored applies the patterns in order so a negation can re-include a
// path excluded earlier.
func (s IgnoreSet) Ignored(relPath string, isDir bool) bool {
	ignored := false
	for _, p := range s {
		if p.match(relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// loadIgnoreFile reads the patterns in file. base is the slash path of
// the file's directory relative to the project root. A missing file is
// not an error.
func loadIgnoreFile(file, base string) (IgnoreSet, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	if base == "." {
		base = ""
	}
	base = path.Clean("/" + base)[1:]

	var set IgnoreSet
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set = append(set, parseIgnorePattern(line, base))
	}
	return set, sc.Err()
}
