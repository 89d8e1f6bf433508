package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/internal/export"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <json|msgpack>",
	Short: "Write the analyzed graph to a file or stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(args[0])
		if err != nil {
			return err
		}
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		snap := g.Snapshot(p.root, p.cfg.TopN)

		var w io.Writer = cmd.OutOrStdout()
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}
		if err := export.Write(w, format, snap); err != nil {
			return err
		}
		p.logger.Debug("graph exported", "format", string(format), "files", len(snap.Files))
		return nil
	},
}

// neo4jCmd represents the export neo4j command
var neo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Load the analyzed graph into Neo4j",
	Long: `Writes every file as a (:SourceFile) node with its score and degrees, and
every resolved import as an [:IMPORTS] relationship. Connection settings come
from the neo4j section of the config and can be overridden by flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, g, err := openGraph(cmd)
		if err != nil {
			return err
		}

		opts := export.Neo4jOptions{
			URI:       p.cfg.Neo4j.URI,
			User:      p.cfg.Neo4j.User,
			Password:  p.cfg.Neo4j.Password,
			Database:  p.cfg.Neo4j.Database,
			BatchSize: p.cfg.Neo4j.BatchSize,
			Logger:    p.logger,
		}
		flags := cmd.Flags()
		if flags.Changed("uri") {
			opts.URI, _ = flags.GetString("uri")
		}
		if flags.Changed("user") {
			opts.User, _ = flags.GetString("user")
		}
		if flags.Changed("password") {
			opts.Password, _ = flags.GetString("password")
		}
		if flags.Changed("database") {
			opts.Database, _ = flags.GetString("database")
		}

		ctx := cmd.Context()
		exporter, err := export.NewNeo4jExporter(ctx, opts)
		if err != nil {
			return err
		}
		defer exporter.Close(ctx)

		if clean, _ := flags.GetBool("clean"); clean {
			if err := exporter.Clean(ctx); err != nil {
				return err
			}
		}
		if err := exporter.CreateIndexes(ctx); err != nil {
			return err
		}

		snap := g.Snapshot(p.root, p.cfg.TopN)
		if err := exporter.Export(ctx, snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files and %d imports to %s\n",
			len(snap.Files), snap.Stats.TotalEdges, opts.URI)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	neo4jCmd.Flags().String("uri", "", "Neo4j URI (default from config)")
	neo4jCmd.Flags().String("user", "", "Neo4j user (default from config)")
	neo4jCmd.Flags().String("password", "", "Neo4j password (default from config)")
	neo4jCmd.Flags().String("database", "", "Neo4j database (default from config)")
	neo4jCmd.Flags().Bool("clean", false, "Delete existing SourceFile nodes first")
	exportCmd.AddCommand(neo4jCmd)
}
