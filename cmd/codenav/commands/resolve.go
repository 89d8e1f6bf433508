package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efrenbl/code-navigator/pkg/fileindex"
	"github.com/efrenbl/code-navigator/pkg/resolve"
	"github.com/efrenbl/code-navigator/pkg/types"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <import>",
	Short: "Explain how an import resolves",
	Long: `Resolves one import string as if it appeared in <file>, and prints the
strategy that matched, its confidence and every candidate path tried.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}

		files, err := p.scan()
		if err != nil {
			return fmt.Errorf("scanning project: %w", err)
		}
		paths := filePaths(files)
		table, err := p.aliases()
		if err != nil {
			return err
		}

		source := p.relPath(args[0])
		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			lang = resolve.DetectLanguage(source)
		}

		r := resolve.New(fileindex.New(paths), table,
			resolve.WithModulePrefix(p.modulePrefix()),
			resolve.WithLogger(p.logger),
		)
		outcome := r.Resolve(source, args[1], lang)

		out := cmd.OutOrStdout()
		if p.json {
			return printJSON(out, outcome)
		}
		printOutcome(cmd, outcome)
		return nil
	},
}

func printOutcome(cmd *cobra.Command, o types.ResolveOutcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Import:     %s\n", o.Import)
	if o.Found() {
		fmt.Fprintf(out, "Resolved:   %s\n", pathColor.Sprint(o.Path))
	} else {
		fmt.Fprintf(out, "Resolved:   %s\n", warnColor.Sprint("not found"))
	}
	fmt.Fprintf(out, "Strategy:   %s\n", o.Strategy)
	fmt.Fprintf(out, "Confidence: %.2f\n", o.Confidence)
	if len(o.Ambiguous) > 0 {
		fmt.Fprintf(out, "Ambiguous:  %s\n", strings.Join(o.Ambiguous, ", "))
	}
	if len(o.Candidates) > 0 {
		fmt.Fprintln(out, "Candidates:")
		for _, c := range o.Candidates {
			dimColor.Fprintf(out, "  %s\n", c)
		}
	}
}

func init() {
	resolveCmd.Flags().String("lang", "", "Language of the importing file (default: from its extension)")
}
