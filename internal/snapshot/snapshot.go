// Package snapshot persists graph snapshots in msgpack so query commands
// can reuse an analysis without rescanning the project.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/efrenbl/code-navigator/pkg/types"
)

// Version is bumped whenever the stored layout changes.
const Version = 1

const magic = "codenav-graph"

// ErrVersionMismatch is returned when a stored snapshot was written by an
// incompatible version.
var ErrVersionMismatch = errors.New("snapshot version mismatch")

// ErrNotSnapshot is returned for data that is not a snapshot file.
var ErrNotSnapshot = errors.New("not a codenav snapshot")

// header precedes the payload in the stream.
type header struct {
	Magic   string    `msgpack:"magic"`
	Version int       `msgpack:"v"`
	Created time.Time `msgpack:"created"`
}

// DefaultPath returns where the CLI keeps the snapshot of root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".codenav", "graph.msgpack")
}

// Write encodes s to w.
func Write(w io.Writer, s types.GraphSnapshot) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&header{Magic: magic, Version: Version, Created: time.Now().UTC()}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := enc.Encode(&s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot from r.
func Read(r io.Reader) (types.GraphSnapshot, time.Time, error) {
	dec := msgpack.NewDecoder(r)

	var h header
	if err := dec.Decode(&h); err != nil || h.Magic != magic {
		return types.GraphSnapshot{}, time.Time{}, ErrNotSnapshot
	}
	if h.Version != Version {
		return types.GraphSnapshot{}, time.Time{}, fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, h.Version, Version)
	}

	var s types.GraphSnapshot
	if err := dec.Decode(&s); err != nil {
		return types.GraphSnapshot{}, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, h.Created, nil
}

// Save writes s to path, creating parent directories. The file is
// replaced atomically.
func Save(path string, s types.GraphSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".graph-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot stored at path.
func Load(path string) (types.GraphSnapshot, time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.GraphSnapshot{}, time.Time{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Read(f)
}
