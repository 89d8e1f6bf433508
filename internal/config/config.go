package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasEntry is one inline alias rule: a pattern with at most one '*' and
// its ordered targets.
type AliasEntry struct {
	Pattern string   `yaml:"pattern"`
	Targets []string `yaml:"targets"`
}

// Neo4jConfig holds connection settings for `codenav export neo4j`.
type Neo4jConfig struct {
	URI      string `yaml:"uri" env:"CODENAV_NEO4J_URI"`
	User     string `yaml:"user" env:"CODENAV_NEO4J_USER"`
	Password string `yaml:"password" env:"CODENAV_NEO4J_PASSWORD"`
	Database string `yaml:"database" env:"CODENAV_NEO4J_DATABASE"`
	// BatchSize bounds the number of rows sent per UNWIND statement.
	BatchSize int `yaml:"batch_size" env:"CODENAV_NEO4J_BATCH_SIZE"`
}

// Config holds all configuration for code-navigator
type Config struct {
	// Ranking
	Damping       float64 `yaml:"damping" env:"CODENAV_DAMPING"`
	MaxIterations int     `yaml:"max_iterations" env:"CODENAV_MAX_ITERATIONS"`
	Tolerance     float64 `yaml:"tolerance" env:"CODENAV_TOLERANCE"`

	// Graph queries
	HubThreshold int `yaml:"hub_threshold" env:"CODENAV_HUB_THRESHOLD"`
	TopN         int `yaml:"top_n" env:"CODENAV_TOP_N"`

	// Resolution
	Workers          int          `yaml:"workers" env:"CODENAV_WORKERS"`
	CacheSize        int          `yaml:"cache_size" env:"CODENAV_CACHE_SIZE"`
	ModulePrefix     string       `yaml:"module_prefix" env:"CODENAV_MODULE_PREFIX"`
	AliasConfigs     []string     `yaml:"alias_configs" env:"CODENAV_ALIAS_CONFIGS"`
	PyprojectAliases bool         `yaml:"pyproject_aliases" env:"CODENAV_PYPROJECT_ALIASES"`
	Aliases          []AliasEntry `yaml:"aliases"`
	BaseURL          string       `yaml:"base_url" env:"CODENAV_BASE_URL"`

	// Scanning
	Languages  []string `yaml:"languages" env:"CODENAV_LANGUAGES"`
	IgnoreFile string   `yaml:"ignore_file" env:"CODENAV_IGNORE_FILE"`

	// Logging
	LogLevel string `yaml:"log_level" env:"CODENAV_LOG_LEVEL"`
	JSONLogs bool   `yaml:"json_logs" env:"CODENAV_JSON_LOGS"`

	Neo4j Neo4jConfig `yaml:"neo4j"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Damping:          0.85,
		MaxIterations:    100,
		Tolerance:        1e-6,
		HubThreshold:     3,
		TopN:             10,
		Workers:          0, // 0 means GOMAXPROCS
		CacheSize:        4096,
		AliasConfigs:     []string{"tsconfig.json", "jsconfig.json"},
		PyprojectAliases: true,
		IgnoreFile:       ".codenavignore",
		LogLevel:         "info",
		Neo4j: Neo4jConfig{
			URI:       "bolt://localhost:7687",
			User:      "neo4j",
			Database:  "neo4j",
			BatchSize: 500,
		},
	}
}

// globalConfigFilePath returns the global config file path (~/.codenav/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codenav/config.yaml"
	}
	return filepath.Join(home, ".codenav", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path
// (<root>/.codenav/config.yaml).
func ProjectConfigFilePath(root string) string {
	return filepath.Join(root, ".codenav", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (<root>/.codenav/config.yaml)
// 3. Global config (~/.codenav/config.yaml)
// 4. Defaults
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{globalConfigFilePath(), ProjectConfigFilePath(root)} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODENAV_DAMPING"); v != "" {
		if f := parseFloat(v); f > 0 {
			cfg.Damping = f
		}
	}
	if v := os.Getenv("CODENAV_MAX_ITERATIONS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxIterations = i
		}
	}
	if v := os.Getenv("CODENAV_TOLERANCE"); v != "" {
		if f := parseFloat(v); f > 0 {
			cfg.Tolerance = f
		}
	}
	if v := os.Getenv("CODENAV_HUB_THRESHOLD"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.HubThreshold = i
		}
	}
	if v := os.Getenv("CODENAV_TOP_N"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.TopN = i
		}
	}
	if v := os.Getenv("CODENAV_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("CODENAV_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i >= 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("CODENAV_MODULE_PREFIX"); v != "" {
		cfg.ModulePrefix = v
	}
	if v := os.Getenv("CODENAV_ALIAS_CONFIGS"); v != "" {
		cfg.AliasConfigs = splitList(v)
	}
	if v := os.Getenv("CODENAV_PYPROJECT_ALIASES"); v != "" {
		cfg.PyprojectAliases = parseBool(v)
	}
	if v := os.Getenv("CODENAV_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CODENAV_LANGUAGES"); v != "" {
		cfg.Languages = splitList(v)
	}
	if v := os.Getenv("CODENAV_IGNORE_FILE"); v != "" {
		cfg.IgnoreFile = v
	}
	if v := os.Getenv("CODENAV_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CODENAV_JSON_LOGS"); v != "" {
		cfg.JSONLogs = parseBool(v)
	}
	if v := os.Getenv("CODENAV_NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("CODENAV_NEO4J_USER"); v != "" {
		cfg.Neo4j.User = v
	}
	if v := os.Getenv("CODENAV_NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("CODENAV_NEO4J_DATABASE"); v != "" {
		cfg.Neo4j.Database = v
	}
	if v := os.Getenv("CODENAV_NEO4J_BATCH_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Neo4j.BatchSize = i
		}
	}
}

// Validate checks that the configuration values are in range
func (c *Config) Validate() error {
	if c.Damping <= 0 || c.Damping >= 1 {
		return fmt.Errorf("damping must be between 0 and 1 (exclusive), got %v", c.Damping)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive")
	}
	if c.HubThreshold <= 0 {
		return fmt.Errorf("hub_threshold must be positive")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative")
	}
	for _, a := range c.Aliases {
		if a.Pattern == "" {
			return fmt.Errorf("alias pattern must not be empty")
		}
		if strings.Count(a.Pattern, "*") > 1 {
			return fmt.Errorf("alias pattern %q has more than one '*'", a.Pattern)
		}
		if len(a.Targets) == 0 {
			return fmt.Errorf("alias %q has no targets", a.Pattern)
		}
	}
	if c.Neo4j.BatchSize < 0 {
		return fmt.Errorf("neo4j.batch_size must be non-negative")
	}
	return nil
}

// splitList splits a comma-separated env value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseFloat attempts to parse a string as float64
func parseFloat(s string) float64 {
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
		return 0
	}
	return f
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
