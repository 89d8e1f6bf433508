package alias

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// configDoc is the subset of a tsconfig/jsconfig document we read.
type configDoc struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		BaseURL *string         `json:"baseUrl"`
		Paths   json.RawMessage `json:"paths"`
	} `json:"compilerOptions"`
}

// chain is the merged result of a document and its extends ancestors.
type chain struct {
	entries []entry
	// anchor is the filesystem directory targets are relative to: the
	// baseUrl of the nearest document defining one, joined onto that
	// document's directory.
	anchor    string
	hasAnchor bool
}

// LoadFromConfig registers the "paths" rules of a tsconfig-style document,
// following its "extends" chain. Comments and trailing commas are allowed.
// Child rules override parent rules with the same pattern. If the document
// cannot be read or parsed the table is left unchanged and the error is
// returned; an unreadable ancestor only truncates the chain.
func (t *Table) LoadFromConfig(path string) error {
	c, err := readChain(path, make(map[string]bool))
	if err != nil {
		return err
	}

	anchorDir := filepath.Dir(path)
	if c.hasAnchor {
		anchorDir = c.anchor
	}
	anchor := t.rel(anchorDir)

	entries := make([]entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, entry{pattern: e.pattern, targets: anchorAll(anchor, e.targets)})
	}

	if err := t.register(entries, anchor, path); err != nil {
		return fmt.Errorf("load aliases from %s: %w", path, err)
	}
	return nil
}

// readChain parses path and its ancestors. seen holds document identities
// already visited; revisiting one ends the chain with what was merged so far.
func readChain(path string, seen map[string]bool) (chain, error) {
	id := documentID(path)
	if seen[id] {
		return chain{}, nil
	}
	seen[id] = true

	doc, err := parseConfigDoc(path)
	if err != nil {
		return chain{}, err
	}

	entries, err := orderedPaths(doc.CompilerOptions.Paths)
	if err != nil {
		return chain{}, fmt.Errorf("parse paths in %s: %w", path, err)
	}

	c := chain{entries: entries}
	if doc.CompilerOptions.BaseURL != nil {
		c.anchor = filepath.Join(filepath.Dir(path), filepath.FromSlash(*doc.CompilerOptions.BaseURL))
		c.hasAnchor = true
	}

	parentPath, ok := extendsPath(path, doc.Extends)
	if !ok {
		return c, nil
	}
	parent, err := readChain(parentPath, seen)
	if err != nil {
		return c, nil
	}

	c.entries = mergeEntries(parent.entries, c.entries)
	if !c.hasAnchor && parent.hasAnchor {
		c.anchor = parent.anchor
		c.hasAnchor = true
	}
	return c, nil
}

func parseConfigDoc(path string) (configDoc, error) {
	var doc configDoc

	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read alias config %s: %w", path, err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return doc, fmt.Errorf("parse alias config %s: %w", path, err)
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		return doc, fmt.Errorf("decode alias config %s: %w", path, err)
	}
	return doc, nil
}

// extendsPath resolves the "extends" reference of the document at path.
// Relative references are taken from the document's directory; bare
// package references are looked up under node_modules.
func extendsPath(path string, raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var ref string
	if err := json.Unmarshal(raw, &ref); err != nil || ref == "" {
		return "", false
	}

	dir := filepath.Dir(path)
	p := filepath.FromSlash(ref)
	switch {
	case filepath.IsAbs(p):
	case strings.HasPrefix(ref, "."):
		p = filepath.Join(dir, p)
	default:
		p = filepath.Join(dir, "node_modules", p)
	}
	if filepath.Ext(p) == "" {
		p += ".json"
	}
	return p, true
}

func documentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// orderedPaths decodes a "paths" object keeping its key order. Values may
// be an array of targets or a single string.
func orderedPaths(raw json.RawMessage) ([]entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		targets, err := decodeTargets(value)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		out = append(out, entry{pattern: key, targets: targets})
	}
	return out, nil
}

func decodeTargets(value json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(value, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(value, &single); err != nil {
		return nil, fmt.Errorf("targets must be a string or an array of strings")
	}
	return []string{single}, nil
}

// mergeEntries overlays child onto parent: colliding patterns take the
// child's targets at the parent's position, new patterns follow in order.
func mergeEntries(parent, child []entry) []entry {
	out := make([]entry, 0, len(parent)+len(child))
	pos := make(map[string]int, len(parent))
	for _, e := range parent {
		pos[e.pattern] = len(out)
		out = append(out, e)
	}
	for _, e := range child {
		if i, ok := pos[e.pattern]; ok {
			out[i] = e
			continue
		}
		pos[e.pattern] = len(out)
		out = append(out, e)
	}
	return out
}
