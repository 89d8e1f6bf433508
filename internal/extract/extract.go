// Package extract pulls raw import strings out of source files. Languages
// with a tree-sitter grammar are parsed; the rest fall back to line
// patterns. Import strings are returned as written, so the resolver sees
// exactly what the author typed.
package extract

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Source is a file to extract from.
type Source struct {
	Path     string // project-relative, reported back unchanged
	FullPath string // read from disk
	Language string
}

// grammar identifies a tree-sitter language.
type grammar string

const (
	grammarPython     grammar = "python"
	grammarJavaScript grammar = "javascript"
	grammarTypeScript grammar = "typescript"
	grammarTSX        grammar = "tsx"
	grammarGo         grammar = "go"
	grammarRust       grammar = "rust"
)

var grammars = map[grammar]func() *sitter.Language{
	grammarPython:     python.GetLanguage,
	grammarJavaScript: javascript.GetLanguage,
	grammarTypeScript: typescript.GetLanguage,
	grammarTSX:        tsx.GetLanguage,
	grammarGo:         golang.GetLanguage,
	grammarRust:       rust.GetLanguage,
}

// parserPools hold reusable parsers per grammar. A parser is not safe for
// concurrent use, so each goroutine takes its own from the pool.
var parserPools = func() map[grammar]*sync.Pool {
	pools := make(map[grammar]*sync.Pool, len(grammars))
	for g, lang := range grammars {
		pools[g] = &sync.Pool{
			New: func() interface{} {
				parser := sitter.NewParser()
				parser.SetLanguage(lang())
				return parser
			},
		}
	}
	return pools
}()

// grammarFor picks the grammar for a file, or "" when the language has
// none.
func grammarFor(filePath, lang string) grammar {
	switch lang {
	case "python":
		return grammarPython
	case "javascript":
		return grammarJavaScript
	case "typescript":
		if path.Ext(filePath) == ".tsx" {
			return grammarTSX
		}
		return grammarTypeScript
	case "go":
		return grammarGo
	case "rust":
		return grammarRust
	}
	return ""
}

// Languages lists the language tags with an import extractor.
func Languages() []string {
	return []string{"python", "javascript", "typescript", "go", "rust", "java", "kotlin", "scala", "ruby", "php"}
}

// Options configures an Extractor.
type Options struct {
	Workers int // 0 means GOMAXPROCS
	Logger  log.Logger
}

// Extractor reads files and extracts their imports.
type Extractor struct {
	workers int
	logger  log.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	e := &Extractor{workers: opts.Workers, logger: opts.Logger}
	if e.logger == nil {
		e.logger = log.Nop()
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// ExtractAll extracts imports from every source concurrently. The result
// has one entry per source, in input order. Unreadable files are logged
// and contribute no imports.
func (e *Extractor) ExtractAll(ctx context.Context, sources []Source) ([]types.FileImports, error) {
	out := make([]types.FileImports, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = types.FileImports{Path: src.Path, Language: src.Language}

			content, err := os.ReadFile(src.FullPath)
			if err != nil {
				e.logger.Warn("cannot read file", "path", src.Path, "error", err)
				return nil
			}
			imports, err := Imports(ctx, src.Path, src.Language, content)
			if err != nil {
				return fmt.Errorf("extract %s: %w", src.Path, err)
			}
			out[i].Imports = imports
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("extraction complete", "files", len(out))
	return out, nil
}

// Imports returns the raw import strings in content, in source order and
// without duplicates. filePath is used only to pick a grammar.
func Imports(ctx context.Context, filePath, lang string, content []byte) ([]string, error) {
	var raw []string
	if g := grammarFor(filePath, lang); g != "" {
		pool := parserPools[g]
		parser := pool.Get().(*sitter.Parser)
		defer pool.Put(parser)

		tree, err := parser.ParseCtx(ctx, nil, content)
		if err != nil {
			return nil, err
		}
		defer tree.Close()
		raw = walkers[g](tree.RootNode(), content)
	} else {
		raw = fallbackImports(lang, content)
	}
	return dedupe(raw), nil
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
