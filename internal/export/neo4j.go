// Package export writes an analyzed graph to external sinks: JSON or
// msgpack streams, and a Neo4j database.
package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efrenbl/code-navigator/internal/log"
	"github.com/efrenbl/code-navigator/pkg/rank"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// DefaultBatchSize bounds the rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Neo4jOptions configures a Neo4jExporter.
type Neo4jOptions struct {
	URI       string
	User      string
	Password  string
	Database  string // empty selects the server default
	BatchSize int
	Logger    log.Logger
}

// runFunc executes one Cypher statement.
type runFunc func(ctx context.Context, cypher string, params map[string]any) error

// Neo4jExporter loads a graph snapshot into Neo4j as (:SourceFile) nodes
// joined by [:IMPORTS] relationships, using batched UNWIND/MERGE
// statements.
type Neo4jExporter struct {
	driver    neo4j.DriverWithContext
	run       runFunc
	batchSize int
	logger    log.Logger
}

// NewNeo4jExporter connects to Neo4j and verifies the connection.
func NewNeo4jExporter(ctx context.Context, opts Neo4jOptions) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", opts.URI, err)
	}

	var queryOpts []neo4j.ExecuteQueryConfigurationOption
	if opts.Database != "" {
		queryOpts = append(queryOpts, neo4j.ExecuteQueryWithDatabase(opts.Database))
	}
	run := func(ctx context.Context, cypher string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, queryOpts...)
		return err
	}

	e := newNeo4jExporter(run, opts)
	e.driver = driver
	return e, nil
}

func newNeo4jExporter(run runFunc, opts Neo4jOptions) *Neo4jExporter {
	e := &Neo4jExporter{run: run, batchSize: opts.BatchSize, logger: opts.Logger}
	if e.batchSize <= 0 {
		e.batchSize = DefaultBatchSize
	}
	if e.logger == nil {
		e.logger = log.Nop()
	}
	return e
}

// Close releases the driver.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}
	return e.driver.Close(ctx)
}

// Clean removes previously exported files and their relationships.
func (e *Neo4jExporter) Clean(ctx context.Context) error {
	e.logger.Info("cleaning existing graph data")
	queries := []string{
		"MATCH ()-[r:IMPORTS]->() DELETE r",
		"MATCH (n:SourceFile) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := e.run(ctx, q, nil); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}
	return nil
}

// CreateIndexes ensures the lookup indexes exist.
func (e *Neo4jExporter) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX source_file_path IF NOT EXISTS FOR (n:SourceFile) ON (n.path)",
		"CREATE INDEX source_file_score IF NOT EXISTS FOR (n:SourceFile) ON (n.score)",
	}
	for _, q := range indexes {
		if err := e.run(ctx, q, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

const fileCypher = `UNWIND $batch AS row
MERGE (n:SourceFile {path: row.path})
SET n.language = row.language, n.score = row.score,
    n.in_degree = row.in_degree, n.out_degree = row.out_degree,
    n.hub_level = row.hub_level`

const importCypher = `UNWIND $batch AS row
MATCH (a:SourceFile {path: row.from}), (b:SourceFile {path: row.to})
MERGE (a)-[:IMPORTS]->(b)`

// Export writes every file, then every import edge. Files go first so the
// edge statements can MATCH both ends.
func (e *Neo4jExporter) Export(ctx context.Context, s types.GraphSnapshot) error {
	files := FileRows(s)
	e.logger.Info("loading files", "count", len(files))
	for _, batch := range Batches(files, e.batchSize) {
		if err := e.run(ctx, fileCypher, map[string]any{"batch": batch}); err != nil {
			return fmt.Errorf("load files: %w", err)
		}
	}

	edges := ImportRows(s)
	e.logger.Info("loading imports", "count", len(edges))
	for _, batch := range Batches(edges, e.batchSize) {
		if err := e.run(ctx, importCypher, map[string]any{"batch": batch}); err != nil {
			return fmt.Errorf("load imports: %w", err)
		}
	}
	return nil
}

// FileRows builds one parameter row per file.
func FileRows(s types.GraphSnapshot) []map[string]any {
	rows := make([]map[string]any, 0, len(s.Files))
	for _, f := range s.Files {
		rows = append(rows, map[string]any{
			"path":       f.Path,
			"language":   f.Language,
			"score":      f.Score,
			"in_degree":  f.InDegree,
			"out_degree": f.OutDegree,
			"hub_level":  string(rank.ClassifyHub(f.InDegree)),
		})
	}
	return rows
}

// ImportRows builds one parameter row per resolved import edge.
func ImportRows(s types.GraphSnapshot) []map[string]any {
	var rows []map[string]any
	for _, f := range s.Files {
		for _, to := range f.ResolvedImports {
			rows = append(rows, map[string]any{"from": f.Path, "to": to})
		}
	}
	return rows
}

// Batches splits rows into consecutive chunks of at most size rows.
func Batches(rows []map[string]any, size int) [][]map[string]any {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]map[string]any
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
