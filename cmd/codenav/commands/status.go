package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/internal/dirty"
)

// FileStatus is the hash state of one file named on the command line.
type FileStatus struct {
	Path  string `json:"path"`
	State string `json:"state"`
	Hash  string `json:"hash"`
}

// StatusOutput represents the output of the status command
type StatusOutput struct {
	Tracked       int          `json:"tracked"`
	ConfigChanged bool         `json:"config_changed"`
	Changed       []string     `json:"changed"`
	Removed       []string     `json:"removed"`
	Files         []FileStatus `json:"files,omitempty"`
	Stale         bool         `json:"stale"`
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [file...]",
	Short: "Show what changed since the last analysis",
	Long: `Compares the project against the file hashes recorded by the last
analysis. Lists new, modified and removed files and whether the resolution
configuration changed. With file arguments only those files are rehashed.
Nothing is saved.

Examples:
  codenav status
  codenav status web/lib/api.ts app/main.py`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}
		files, err := p.scan()
		if err != nil {
			return fmt.Errorf("scanning project: %w", err)
		}
		tracker, err := p.tracker()
		if err != nil {
			return err
		}

		var output StatusOutput
		if err := tracker.Load(); err != nil {
			if !errors.Is(err, dirty.ErrKeyMismatch) {
				return fmt.Errorf("loading file hashes: %w", err)
			}
			output.ConfigChanged = true
		}
		output.Tracked = tracker.TotalCount()

		paths := filePaths(files)
		output.Removed = tracker.Removed(paths)
		if len(args) == 0 {
			if _, err := tracker.CheckAll(cmd.Context(), paths); err != nil {
				return fmt.Errorf("hashing files: %w", err)
			}
		}
		for _, arg := range args {
			fs, err := checkFile(tracker, p.relPath(arg))
			if err != nil {
				return err
			}
			output.Files = append(output.Files, fs)
		}
		output.Changed = tracker.GetDirtyFiles()
		output.Stale = output.ConfigChanged || tracker.Count() > 0 || len(output.Removed) > 0

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, output)
		}
		printStatus(cmd, output)
		return nil
	},
}

func checkFile(tracker *dirty.Tracker, rel string) (FileStatus, error) {
	_, known := tracker.GetHash(rel)
	if _, err := tracker.CheckAndMark(rel); err != nil {
		return FileStatus{}, fmt.Errorf("checking %s: %w", rel, err)
	}
	hash, _ := tracker.GetHash(rel)

	state := "unchanged"
	switch {
	case !known:
		state = "new"
	case tracker.IsDirty(rel):
		state = "modified"
	}
	return FileStatus{Path: rel, State: state, Hash: hash}, nil
}

func printStatus(cmd *cobra.Command, s StatusOutput) {
	out := cmd.OutOrStdout()
	printHeader(out, "Status")
	fmt.Fprintf(out, "Tracked files:    %d\n", s.Tracked)
	if s.ConfigChanged {
		fmt.Fprintf(out, "Configuration:    %s\n", warnColor.Sprint("changed"))
	}
	for _, f := range s.Files {
		fmt.Fprintf(out, "  %-10s %s ", f.State, pathColor.Sprint(f.Path))
		dimColor.Fprintf(out, "%.12s\n", f.Hash)
	}
	if len(s.Files) == 0 {
		for _, path := range s.Changed {
			fmt.Fprintf(out, "  changed    %s\n", pathColor.Sprint(path))
		}
	}
	for _, path := range s.Removed {
		fmt.Fprintf(out, "  removed    %s\n", pathColor.Sprint(path))
	}
	if s.Stale {
		warnColor.Fprintln(out, "Snapshot is stale; the next query rebuilds it.")
	} else {
		dimColor.Fprintln(out, "Snapshot is up to date.")
	}
}
