package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/internal/config"
	"github.com/efrenbl/code-navigator/internal/manifest"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize codenav configuration interactively",
	Long: `Guides you through setting up codenav configuration step by step.
Creates a config file with ranking, resolution and Neo4j settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootFlag, _ := cmd.Flags().GetString("root")
		root, err := filepath.Abs(rootFlag)
		if err != nil {
			return fmt.Errorf("getting absolute path: %w", err)
		}
		return runInit(cmd, root)
	},
}

func runInit(cmd *cobra.Command, root string) error {
	out := cmd.OutOrStdout()
	cfg := config.DefaultConfig()

	// === SECTION 1: Ranking ===
	damping := strconv.FormatFloat(cfg.Damping, 'f', -1, 64)
	hubThreshold := strconv.Itoa(cfg.HubThreshold)
	topN := strconv.Itoa(cfg.TopN)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Damping factor").
				Description("Probability of following an import while ranking (0 < d < 1)").
				Placeholder("0.85").
				Validate(validateFloat).
				Value(&damping),
			huh.NewInput().
				Title("Hub threshold").
				Description("Minimum number of importers for a file to count as a hub").
				Placeholder("3").
				Validate(validateInt).
				Value(&hubThreshold),
			huh.NewInput().
				Title("Critical paths to show").
				Placeholder("10").
				Validate(validateInt).
				Value(&topN),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Damping, _ = strconv.ParseFloat(strings.TrimSpace(damping), 64)
	cfg.HubThreshold, _ = strconv.Atoi(strings.TrimSpace(hubThreshold))
	cfg.TopN, _ = strconv.Atoi(strings.TrimSpace(topN))

	// === SECTION 2: Resolution ===
	detected, source := manifest.DetectModulePrefix(root)
	prefixDesc := "Leave empty to read it from go.mod, pyproject.toml, Cargo.toml or package.json"
	if detected != "" {
		prefixDesc = fmt.Sprintf("Detected %q from %s; leave empty to keep detecting it", detected, source)
	}
	modulePrefix := ""
	aliasConfigs := strings.Join(cfg.AliasConfigs, ", ")
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Module prefix").
				Description(prefixDesc).
				Value(&modulePrefix),
			huh.NewInput().
				Title("Alias config files").
				Description("Comma-separated tsconfig/jsconfig files relative to the project root").
				Value(&aliasConfigs),
			huh.NewConfirm().
				Title("Read aliases from pyproject.toml?").
				Value(&cfg.PyprojectAliases),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.ModulePrefix = strings.TrimSpace(modulePrefix)
	cfg.AliasConfigs = splitComma(aliasConfigs)

	// === SECTION 3: Neo4j ===
	var useNeo4j bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Configure Neo4j export?").
				Affirmative("Yes").
				Negative("No, keep defaults").
				Value(&useNeo4j),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if useNeo4j {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Neo4j URI").
					Placeholder("bolt://localhost:7687").
					Value(&cfg.Neo4j.URI),
				huh.NewInput().
					Title("Neo4j user").
					Placeholder("neo4j").
					Value(&cfg.Neo4j.User),
				huh.NewInput().
					Title("Neo4j database (optional, press Enter for the server default)").
					Value(&cfg.Neo4j.Database),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.codenav/config.yaml)", "project"),
					huh.NewOption("Global (~/.codenav/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath(root)
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".codenav", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path:   %s\n", configPath)
	fmt.Fprintf(out, "Damping:       %v\n", cfg.Damping)
	fmt.Fprintf(out, "Hub threshold: %d\n", cfg.HubThreshold)
	fmt.Fprintf(out, "Top N:         %d\n", cfg.TopN)
	if cfg.ModulePrefix != "" {
		fmt.Fprintf(out, "Module prefix: %s\n", cfg.ModulePrefix)
	} else {
		fmt.Fprintln(out, "Module prefix: detected")
	}
	fmt.Fprintf(out, "Alias configs: %s\n", strings.Join(cfg.AliasConfigs, ", "))
	if useNeo4j {
		fmt.Fprintf(out, "Neo4j:         %s (user %s)\n", cfg.Neo4j.URI, cfg.Neo4j.User)
	}
	fmt.Fprintln(out, "================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	return nil
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not an integer")
	}
	return nil
}

func splitComma(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
