package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/efrenbl/code-navigator/internal/snapshot"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// Format names a stream export format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json or msgpack)", s)
}

// Write encodes the snapshot to w in the given format.
func Write(w io.Writer, format Format, s types.GraphSnapshot) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatMsgpack:
		return snapshot.Write(w, s)
	}
	return fmt.Errorf("unknown export format %q", format)
}
