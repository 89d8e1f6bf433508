package alias

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

type pyproject struct {
	Tool struct {
		ImportResolver struct {
			BaseURL string                 `toml:"base_url"`
			Aliases map[string]interface{} `toml:"aliases"`
		} `toml:"import_resolver"`
	} `toml:"tool"`
}

// LoadFromPyproject registers aliases from the [tool.import_resolver]
// table of a pyproject.toml:
//
//	[tool.import_resolver]
//	base_url = "src"
//	aliases = { "@" = ["myapp"], "~/*" = "lib/*" }
//
// base_url is relative to the file's directory. Patterns are registered in
// sorted order. A document without the table is not an error.
func (t *Table) LoadFromPyproject(path string) error {
	var doc pyproject
	md, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if !md.IsDefined("tool", "import_resolver") {
		return nil
	}

	cfg := doc.Tool.ImportResolver
	anchor := t.rel(filepath.Join(filepath.Dir(path), filepath.FromSlash(cfg.BaseURL)))

	patterns := make([]string, 0, len(cfg.Aliases))
	for p := range cfg.Aliases {
		patterns = append(patterns, p)
	}
	slices.Sort(patterns)

	entries := make([]entry, 0, len(patterns))
	for _, p := range patterns {
		targets, err := tomlTargets(cfg.Aliases[p])
		if err != nil {
			return fmt.Errorf("%s: alias %q: %w", path, p, err)
		}
		entries = append(entries, entry{pattern: p, targets: anchorAll(anchor, targets)})
	}

	if err := t.register(entries, anchor, path); err != nil {
		return fmt.Errorf("load aliases from %s: %w", path, err)
	}
	return nil
}

func tomlTargets(v interface{}) ([]string, error) {
	switch tv := v.(type) {
	case string:
		return []string{tv}, nil
	case []interface{}:
		out := make([]string, 0, len(tv))
		for _, item := range tv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("target %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("targets must be a string or an array of strings")
	}
}
