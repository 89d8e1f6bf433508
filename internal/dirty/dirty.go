// Package dirty tracks which project files changed since the graph was
// last analyzed, based on content hashing. Query commands use it to decide
// whether a saved snapshot can still answer.
package dirty

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultFile is the default filename for the hash state, stored next to
// the graph snapshot.
const DefaultFile = "hashes.json"

const stateVersion = 1

// ErrKeyMismatch is returned by Load when the state was recorded under a
// different key. The file states are loaded anyway.
var ErrKeyMismatch = errors.New("file hashes were recorded under a different key")

// fileState represents the tracked state of a single file.
type fileState struct {
	Path     string `json:"path"`
	Hash     string `json:"hash"`
	IsDirty  bool   `json:"is_dirty"`
	LastSeen int64  `json:"last_seen"` // Unix timestamp
}

// stateData is the on-disk JSON structure.
type stateData struct {
	Version int         `json:"version"`
	Key     string      `json:"key,omitempty"`
	Files   []fileState `json:"files"`
}

// Tracker tracks files of one project root by content hash. Paths are
// project-relative and slash-separated.
type Tracker struct {
	mu      sync.RWMutex
	root    string
	files   map[string]fileState
	path    string
	key     string
	workers int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithKey sets the key saved with the state. It identifies whatever
// besides file contents the tracked result depends on, such as the
// configuration it was built with.
func WithKey(key string) Option {
	return func(t *Tracker) {
		t.key = key
	}
}

// WithWorkers bounds concurrent hashing. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(t *Tracker) {
		t.workers = n
	}
}

// DefaultPath returns the state file location for a project root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".codenav", DefaultFile)
}

// New creates a Tracker for root.
func New(root string, opts ...Option) *Tracker {
	t := &Tracker{
		root:  root,
		files: make(map[string]fileState),
		path:  DefaultPath(root),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// computeHash computes SHA256 hash of file contents.
func computeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (t *Tracker) abs(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}

// CheckAndMark rehashes rel and marks it dirty when it is new or its
// content changed; an unchanged file is marked clean. Returns true if the
// file was marked dirty.
func (t *Tracker) CheckAndMark(rel string) (bool, error) {
	hash, err := computeHash(t.abs(rel))
	if err != nil {
		return false, err
	}
	return t.mark(rel, hash), nil
}

func (t *Tracker) mark(rel, hash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, exists := t.files[rel]
	if exists && existing.Hash == hash {
		existing.IsDirty = false
		t.files[rel] = existing
		return false
	}
	t.files[rel] = fileState{
		Path:     rel,
		Hash:     hash,
		IsDirty:  true,
		LastSeen: time.Now().Unix(),
	}
	return true
}

// CheckAll rehashes every file in rels concurrently and returns the ones
// that are new or changed, sorted.
func (t *Tracker) CheckAll(ctx context.Context, rels []string) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	workers := t.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	var mu sync.Mutex
	var changed []string
	for _, rel := range rels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dirty, err := t.CheckAndMark(rel)
			if err != nil {
				return err
			}
			if dirty {
				mu.Lock()
				changed = append(changed, rel)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(changed)
	return changed, nil
}

// Removed returns tracked files that are missing from rels, sorted.
func (t *Tracker) Removed(rels []string) []string {
	present := make(map[string]bool, len(rels))
	for _, rel := range rels {
		present[rel] = true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var removed []string
	for rel := range t.files {
		if !present[rel] {
			removed = append(removed, rel)
		}
	}
	slices.Sort(removed)
	return removed
}

// Sync makes rels the complete tracked set: every file is rehashed, files
// not in rels are dropped and all dirty flags are cleared.
func (t *Tracker) Sync(ctx context.Context, rels []string) error {
	if _, err := t.CheckAll(ctx, rels); err != nil {
		return err
	}
	for _, rel := range t.Removed(rels) {
		t.Remove(rel)
	}
	t.ClearDirty(nil)
	return nil
}

// IsDirty checks if a file is currently marked as dirty.
func (t *Tracker) IsDirty(rel string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, exists := t.files[rel]
	return exists && state.IsDirty
}

// GetDirtyFiles returns all files currently marked as dirty, sorted.
func (t *Tracker) GetDirtyFiles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []string
	for _, state := range t.files {
		if state.IsDirty {
			result = append(result, state.Path)
		}
	}
	slices.Sort(result)
	return result
}

// ClearDirty clears the dirty flag for the given files after a rebuild.
// If no files are provided, all files are cleared.
func (t *Tracker) ClearDirty(files []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(files) == 0 {
		for rel, state := range t.files {
			state.IsDirty = false
			t.files[rel] = state
		}
		return
	}
	for _, rel := range files {
		if state, exists := t.files[rel]; exists {
			state.IsDirty = false
			t.files[rel] = state
		}
	}
}

// Count returns the number of dirty files.
func (t *Tracker) Count() int {
	return len(t.GetDirtyFiles())
}

// TotalCount returns the total number of tracked files.
func (t *Tracker) TotalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.files)
}

// GetHash returns the current hash for a tracked file.
func (t *Tracker) GetHash(rel string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, exists := t.files[rel]
	return state.Hash, exists
}

// Remove removes a file from tracking.
func (t *Tracker) Remove(rel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, rel)
}

// Save persists the state to the tracker's state file.
func (t *Tracker) Save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	f, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	if err := t.SaveTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load restores the state from the tracker's state file. A missing file
// leaves the tracker empty.
func (t *Tracker) Load() error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	return t.LoadFrom(f)
}

// SaveTo writes the state to the given writer, sorted by path.
func (t *Tracker) SaveTo(w io.Writer) error {
	t.mu.RLock()
	data := stateData{Version: stateVersion, Key: t.key, Files: make([]fileState, 0, len(t.files))}
	for _, rel := range slices.Sorted(maps.Keys(t.files)) {
		data.Files = append(data.Files, t.files[rel])
	}
	t.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}

// LoadFrom reads the state from the given reader. State written by a
// different version is discarded, so every file reads as new. State saved
// under another key is kept but reported with ErrKeyMismatch.
func (t *Tracker) LoadFrom(r io.Reader) error {
	var data stateData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = make(map[string]fileState, len(data.Files))
	if data.Version != stateVersion {
		return nil
	}
	for _, state := range data.Files {
		t.files[state.Path] = state
	}
	if data.Key != t.key {
		return ErrKeyMismatch
	}
	return nil
}
