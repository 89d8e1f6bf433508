// Package scanner walks a project tree and lists the source files that
// take part in the dependency graph. It honours gitignore-style
// .codenavignore files and a set of default excluded directories.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/resolve"
)

// File is one discovered source file.
type File struct {
	Path     string // slash path relative to the root
	FullPath string
	Language string
	Size     int64
}

// Options configures a scan.
type Options struct {
	SkipHidden      bool
	FollowSymlinks  bool     // file symlinks only, and only inside root
	DefaultExcludes []string // directory names, matched case-insensitively
	IgnoreFileName  string
	// Languages restricts the result to these language tags. Empty keeps
	// every file with a recognised language.
	Languages []string
	Logger    log.Logger
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".codenavignore",
		DefaultExcludes: []string{
			"node_modules",
			".git",
			"__pycache__",
			".venv",
			"venv",
			"dist",
			"build",
			".idea",
			".vscode",
			"vendor",
			".hg",
			".svn",
			".tox",
			".nox",
			".mypy_cache",
			".pytest_cache",
			"target",
			"bin",
			"obj",
		},
		Logger: log.Nop(),
	}
}

// Scanner lists project files.
type Scanner struct {
	opts Options
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns the matching files sorted by path.
func (s *Scanner) Scan(root string) ([]File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	// Patterns declared by each visited directory's ignore file, keyed by
	// the directory's relative path. A directory sees its ancestors' sets.
	scoped := map[string]IgnoreSet{}
	var files []File

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.opts.Logger.Debug("skipping unreadable entry", "path", p, "error", walkErr)
			if d != nil && d.IsDir() && p != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if rel == "." {
			return s.loadScope(scoped, p, ".")
		}

		name := d.Name()
		if s.opts.SkipHidden && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		patterns := s.patternsFor(scoped, rel)

		if d.IsDir() {
			if s.isDefaultExcluded(name) || patterns.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return s.loadScope(scoped, p, rel)
		}

		if patterns.Ignored(rel, false) {
			return nil
		}

		size, ok := s.regularFile(absRoot, p, d)
		if !ok {
			return nil
		}

		lang := resolve.DetectLanguage(rel)
		if !s.wantLanguage(lang) {
			return nil
		}

		files = append(files, File{
			Path:     rel,
			FullPath: p,
			Language: lang,
			Size:     size,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	s.opts.Logger.Debug("scan complete", "root", absRoot, "files", len(files))
	return files, nil
}

func (s *Scanner) loadScope(scoped map[string]IgnoreSet, dir, rel string) error {
	if s.opts.IgnoreFileName == "" {
		return nil
	}
	set, err := loadIgnoreFile(filepath.Join(dir, s.opts.IgnoreFileName), rel)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Join(dir, s.opts.IgnoreFileName), err)
	}
	if len(set) > 0 {
		scoped[rel] = set
	}
	return nil
}

// patternsFor collects the ignore sets of rel's ancestors, root first.
func (s *Scanner) patternsFor(scoped map[string]IgnoreSet, rel string) IgnoreSet {
	out := slices.Clone(scoped["."])
	segs := strings.Split(rel, "/")
	for i := 1; i < len(segs); i++ {
		out = append(out, scoped[strings.Join(segs[:i], "/")]...)
	}
	return out
}

// regularFile returns the file size, following a symlink when allowed.
func (s *Scanner) regularFile(absRoot, p string, d fs.DirEntry) (int64, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !s.opts.FollowSymlinks {
			return 0, false
		}
		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			return 0, false
		}
		realRoot, err := filepath.EvalSymlinks(absRoot)
		if err != nil {
			return 0, false
		}
		if real != realRoot && !strings.HasPrefix(real, realRoot+string(filepath.Separator)) {
			return 0, false
		}
		info, err := os.Stat(real)
		if err != nil || info.IsDir() {
			return 0, false
		}
		return info.Size(), true
	}
	if !d.Type().IsRegular() {
		return 0, false
	}
	info, err := d.Info()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) wantLanguage(lang string) bool {
	if len(s.opts.Languages) == 0 {
		return lang != resolve.DefaultLanguage
	}
	return slices.Contains(s.opts.Languages, lang)
}

// Scan scans root with DefaultOptions.
func Scan(root string) ([]File, error) {
	return New(DefaultOptions()).Scan(root)
}
