// Package types defines the plain records shared by the resolver, the
// dependency graph and the ranker: source files, resolution outcomes,
// graph statistics and serializable snapshots.
package types

// Strategy names the resolution strategy that produced an outcome.
type Strategy string

const (
	StrategyExact         Strategy = "exact"
	StrategyRelative      Strategy = "relative"
	StrategyAlias         Strategy = "alias"
	StrategyModulePrefix  Strategy = "module-prefix"
	StrategyImplicitIndex Strategy = "implicit-index"
	StrategySuffix        Strategy = "suffix"
	StrategyNotFound      Strategy = "not-found"
)

// FileImports is the raw input for one file: its project-relative path,
// language tag and the import strings found in it.
type FileImports struct {
	Path     string   `json:"path" msgpack:"path"`
	Language string   `json:"language" msgpack:"language"`
	Imports  []string `json:"imports" msgpack:"imports"`
}

// SourceFile is a node of the dependency graph.
type SourceFile struct {
	Path            string   `json:"path" msgpack:"path"`
	Language        string   `json:"language" msgpack:"language"`
	Imports         []string `json:"imports" msgpack:"imports"`
	ResolvedImports []string `json:"resolved_imports" msgpack:"resolved_imports"`
	Importers       []string `json:"importers" msgpack:"importers"`
	Score           float64  `json:"score" msgpack:"score"`
	InDegree        int      `json:"in_degree" msgpack:"in_degree"`
	OutDegree       int      `json:"out_degree" msgpack:"out_degree"`
}

// ResolveOutcome is the result of resolving one raw import string.
type ResolveOutcome struct {
	Import     string   `json:"import" msgpack:"import"`
	Path       string   `json:"path,omitempty" msgpack:"path,omitempty"`
	Strategy   Strategy `json:"strategy" msgpack:"strategy"`
	Candidates []string `json:"candidates" msgpack:"candidates"`
	Confidence float64  `json:"confidence" msgpack:"confidence"`
	// Ambiguous lists competing files when a suffix lookup matched more
	// than one; the outcome itself stays not-found.
	Ambiguous []string `json:"ambiguous,omitempty" msgpack:"ambiguous,omitempty"`
}

// Found reports whether the import resolved to a project file.
func (o ResolveOutcome) Found() bool {
	return o.Path != "" && o.Strategy != StrategyNotFound
}

// RankedFile pairs a file with its importance score.
type RankedFile struct {
	Path  string  `json:"path" msgpack:"path"`
	Score float64 `json:"score" msgpack:"score"`
}

// ChainNode is one level of a dependency or importer chain.
type ChainNode struct {
	Path     string      `json:"path" msgpack:"path"`
	Children []ChainNode `json:"children,omitempty" msgpack:"children,omitempty"`
	// Cycle marks a file that already appears higher up on the same branch.
	Cycle bool `json:"cycle,omitempty" msgpack:"cycle,omitempty"`
}

// Walk visits every node of the chain depth-first, passing the depth
// (root = 0). Returning false stops descent below that node.
func (c ChainNode) Walk(fn func(node ChainNode, depth int) bool) {
	c.walk(fn, 0)
}

func (c ChainNode) walk(fn func(ChainNode, int) bool, depth int) {
	if !fn(c, depth) {
		return
	}
	for _, child := range c.Children {
		child.walk(fn, depth+1)
	}
}

// HubFile is a file whose in-degree meets a hub threshold.
type HubFile struct {
	Path      string  `json:"path" msgpack:"path"`
	InDegree  int     `json:"in_degree" msgpack:"in_degree"`
	OutDegree int     `json:"out_degree" msgpack:"out_degree"`
	Level     string  `json:"level" msgpack:"level"`
	HubScore  float64 `json:"hub_score" msgpack:"hub_score"`
}

// GraphStats summarizes a dependency graph.
type GraphStats struct {
	TotalFiles      int            `json:"total_files" msgpack:"total_files"`
	TotalEdges      int            `json:"total_edges" msgpack:"total_edges"`
	HubFiles        int            `json:"hub_files" msgpack:"hub_files"`
	HubThreshold    int            `json:"hub_threshold" msgpack:"hub_threshold"`
	CriticalHubs    int            `json:"critical_hubs" msgpack:"critical_hubs"`
	MaxInDegree     int            `json:"max_in_degree" msgpack:"max_in_degree"`
	AvgImports      float64        `json:"avg_imports" msgpack:"avg_imports"`
	AvgImporters    float64        `json:"avg_importers" msgpack:"avg_importers"`
	Languages       map[string]int `json:"languages" msgpack:"languages"`
	IsolatedFiles   int            `json:"isolated_files" msgpack:"isolated_files"`
	Cycles          int            `json:"cycles" msgpack:"cycles"`
	UnresolvedCount int            `json:"unresolved_imports" msgpack:"unresolved_imports"`
	RankIterations  int            `json:"rank_iterations" msgpack:"rank_iterations"`
	RankConverged   bool           `json:"rank_converged" msgpack:"rank_converged"`
}

// GraphSnapshot is the serializable form of an analyzed graph.
type GraphSnapshot struct {
	Root          string       `json:"root,omitempty" msgpack:"root,omitempty"`
	ModulePrefix  string       `json:"module_prefix,omitempty" msgpack:"module_prefix,omitempty"`
	Stats         GraphStats   `json:"stats" msgpack:"stats"`
	CriticalPaths []RankedFile `json:"critical_paths" msgpack:"critical_paths"`
	Files         []SourceFile `json:"files" msgpack:"files"`
	// Outcomes holds the resolution outcome of every raw import, keyed by
	// importing file.
	Outcomes map[string][]ResolveOutcome `json:"outcomes,omitempty" msgpack:"outcomes,omitempty"`
}
