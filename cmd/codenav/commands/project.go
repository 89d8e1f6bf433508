package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/internal/config"
	"github.com/efrenbl/code-navigator/internal/dirty"
	"github.com/efrenbl/code-navigator/internal/extract"
	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/internal/manifest"
	"github.com/efrenbl/code-navigator/internal/scanner"
	"github.com/efrenbl/code-navigator/internal/snapshot"
	"github.com/efrenbl/code-navigator/pkg/alias"
	"github.com/efrenbl/code-navigator/pkg/depgraph"
	"github.com/efrenbl/code-navigator/pkg/rank"
)

// project is the per-invocation state shared by commands.
type project struct {
	root   string
	cfg    *config.Config
	logger log.Logger
	json   bool
	fresh  bool
	table  *alias.Table
}

// loadProject resolves the root flag, loads configuration and sets up the
// logger.
func loadProject(cmd *cobra.Command) (*project, error) {
	rootFlag, _ := cmd.Flags().GetString("root")
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	levelName := cfg.LogLevel
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		levelName = flag
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	p := &project{
		root:   root,
		cfg:    cfg,
		logger: log.New(log.LoggerConfig{Level: level, JSONOutput: cfg.JSONLogs}),
	}
	p.json, _ = cmd.Flags().GetBool("json")
	p.fresh, _ = cmd.Flags().GetBool("fresh")
	return p, nil
}

// modulePrefix returns the configured prefix or the one declared by the
// project's manifest.
func (p *project) modulePrefix() string {
	if p.cfg.ModulePrefix != "" {
		return p.cfg.ModulePrefix
	}
	prefix, source := manifest.DetectModulePrefix(p.root)
	if prefix != "" {
		p.logger.Debug("detected module prefix", "prefix", prefix, "source", string(source))
	}
	return prefix
}

// aliases builds the alias table from config files and inline rules.
// Broken alias documents are reported and skipped.
func (p *project) aliases() (*alias.Table, error) {
	if p.table != nil {
		return p.table, nil
	}
	table := alias.NewTable(p.root)

	for _, name := range p.cfg.AliasConfigs {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.root, name)
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := table.LoadFromConfig(path); err != nil {
			p.logger.Warn("skipping alias config", "path", path, "error", err)
		}
	}

	if p.cfg.PyprojectAliases {
		path := filepath.Join(p.root, "pyproject.toml")
		if _, err := os.Stat(path); err == nil {
			if err := table.LoadFromPyproject(path); err != nil {
				p.logger.Warn("skipping pyproject aliases", "path", path, "error", err)
			}
		}
	}

	if p.cfg.BaseURL != "" {
		table.SetBase(p.cfg.BaseURL)
	}
	for _, a := range p.cfg.Aliases {
		if err := table.AddRule(a.Pattern, a.Targets...); err != nil {
			return nil, fmt.Errorf("alias %q: %w", a.Pattern, err)
		}
	}

	p.logger.Debug("alias table ready", "rules", table.Len(), "sources", table.Sources())
	p.table = table
	return table, nil
}

func (p *project) languages() []string {
	if len(p.cfg.Languages) > 0 {
		return p.cfg.Languages
	}
	return extract.Languages()
}

// scan lists the project's source files.
func (p *project) scan() ([]scanner.File, error) {
	opts := scanner.DefaultOptions()
	opts.IgnoreFileName = p.cfg.IgnoreFile
	opts.Languages = p.languages()
	opts.Logger = p.logger
	return scanner.New(opts).Scan(p.root)
}

func (p *project) rankOptions() rank.Options {
	return rank.Options{
		Damping:       p.cfg.Damping,
		MaxIterations: p.cfg.MaxIterations,
		Tolerance:     p.cfg.Tolerance,
		Workers:       p.cfg.Workers,
	}
}

// build runs the whole pipeline: scan, extract, resolve, rank.
func (p *project) build(ctx context.Context) (*depgraph.Graph, []scanner.File, error) {
	files, err := p.scan()
	if err != nil {
		return nil, nil, fmt.Errorf("scanning project: %w", err)
	}
	g, err := p.buildFrom(ctx, files)
	return g, files, err
}

func (p *project) buildFrom(ctx context.Context, files []scanner.File) (*depgraph.Graph, error) {
	p.logger.Info("scanned project", "root", p.root, "files", len(files))

	sources := make([]extract.Source, len(files))
	for i, f := range files {
		sources[i] = extract.Source{Path: f.Path, FullPath: f.FullPath, Language: f.Language}
	}
	imports, err := extract.New(extract.Options{Workers: p.cfg.Workers, Logger: p.logger}).ExtractAll(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("extracting imports: %w", err)
	}

	table, err := p.aliases()
	if err != nil {
		return nil, err
	}

	opts := depgraph.Options{
		Aliases:      table,
		ModulePrefix: p.modulePrefix(),
		Workers:      p.cfg.Workers,
		CacheSize:    p.cfg.CacheSize,
		HubThreshold: p.cfg.HubThreshold,
		Rank:         p.rankOptions(),
		Logger:       p.logger,
	}
	g, err := depgraph.Build(ctx, imports, opts)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	info := g.RankInfo()
	if !info.Converged {
		p.logger.Warn("ranking did not converge", "iterations", info.Iterations)
	}
	p.logger.Info("graph built", "files", g.Len(), "edges", g.EdgeCount(), "iterations", info.Iterations)
	return g, nil
}

// inputsKey digests everything besides source contents that shapes the
// graph: the effective alias rules, module prefix, languages, hub
// threshold and ranking parameters.
func (p *project) inputsKey() (string, error) {
	table, err := p.aliases()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(struct {
		Base          string       `json:"base"`
		Aliases       []alias.Rule `json:"aliases"`
		ModulePrefix  string       `json:"module_prefix"`
		Languages     []string     `json:"languages"`
		HubThreshold  int          `json:"hub_threshold"`
		Damping       float64      `json:"damping"`
		MaxIterations int          `json:"max_iterations"`
		Tolerance     float64      `json:"tolerance"`
	}{
		Base:          table.Base(),
		Aliases:       table.Rules(),
		ModulePrefix:  p.modulePrefix(),
		Languages:     p.languages(),
		HubThreshold:  p.cfg.HubThreshold,
		Damping:       p.cfg.Damping,
		MaxIterations: p.cfg.MaxIterations,
		Tolerance:     p.cfg.Tolerance,
	})
	if err != nil {
		return "", fmt.Errorf("encoding inputs: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// tracker returns a hash tracker keyed by the current inputs.
func (p *project) tracker() (*dirty.Tracker, error) {
	key, err := p.inputsKey()
	if err != nil {
		return nil, err
	}
	return dirty.New(p.root, dirty.WithWorkers(p.cfg.Workers), dirty.WithKey(key)), nil
}

// save writes the snapshot and the file hashes it was built from.
func (p *project) save(ctx context.Context, g *depgraph.Graph, files []scanner.File) (string, error) {
	path := snapshot.DefaultPath(p.root)
	if err := snapshot.Save(path, g.Snapshot(p.root, 0)); err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	tracker, err := p.tracker()
	if err != nil {
		return "", err
	}
	if err := tracker.Sync(ctx, filePaths(files)); err != nil {
		return "", fmt.Errorf("hashing files: %w", err)
	}
	if err := tracker.Save(); err != nil {
		return "", fmt.Errorf("saving file hashes: %w", err)
	}
	return path, nil
}

// stale reports whether files or configuration differ from the ones the
// saved snapshot was built from.
func (p *project) stale(ctx context.Context, files []scanner.File) (bool, error) {
	tracker, err := p.tracker()
	if err != nil {
		return true, err
	}
	if err := tracker.Load(); err != nil {
		if errors.Is(err, dirty.ErrKeyMismatch) {
			p.logger.Info("snapshot is stale", "reason", "configuration changed")
			return true, nil
		}
		return true, err
	}
	p.logger.Debug("loaded file hashes", "tracked", tracker.TotalCount())

	paths := filePaths(files)
	if _, err := tracker.CheckAll(ctx, paths); err != nil {
		return true, err
	}
	changed := tracker.GetDirtyFiles()
	removed := tracker.Removed(paths)
	if len(changed) > 0 || len(removed) > 0 {
		p.logger.Info("snapshot is stale", "changed", len(changed), "removed", len(removed))
		p.logger.Debug("stale files", "changed", changed, "removed", removed)
		return true, nil
	}
	return false, nil
}

// graph returns the saved snapshot's graph while it matches the project
// files. Otherwise the graph is rebuilt and saved again.
func (p *project) graph(ctx context.Context) (*depgraph.Graph, error) {
	files, err := p.scan()
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	if !p.fresh {
		s, created, err := snapshot.Load(snapshot.DefaultPath(p.root))
		switch {
		case err == nil:
			stale, serr := p.stale(ctx, files)
			if serr != nil {
				p.logger.Warn("checking snapshot freshness", "error", serr)
			}
			if !stale {
				p.logger.Debug("using saved snapshot", "created", created)
				return depgraph.FromSnapshot(s)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			p.logger.Warn("ignoring saved snapshot", "error", err)
		}
	}

	g, err := p.buildFrom(ctx, files)
	if err != nil {
		return nil, err
	}
	if !p.fresh {
		if _, err := p.save(ctx, g, files); err != nil {
			p.logger.Warn("could not save snapshot", "error", err)
		}
	}
	return g, nil
}

func filePaths(files []scanner.File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// relPath maps a user-supplied file argument to a project-relative path.
func (p *project) relPath(arg string) string {
	path := arg
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(p.root, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}
