package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/interest-engine/importer"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		index  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "import [path-or-url]",
		Short: "Import index series",
		Long: `Without arguments, runs every source under import.sources once.

With a path or URL, imports that single source instead. --index names the
series unless the source is a YAML seed file, which carries its own name.`,
		Example: `  interestd import
  interestd import ./seeds/selic.yaml
  interestd import https://example.org/ipca.xml --index ipca`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sources := a.cfg.Import.Sources
			if len(args) == 1 {
				src := importer.Source{Index: index, Format: importer.Format(format)}
				if isURL(args[0]) {
					src.URL = args[0]
				} else {
					src.Path = args[0]
				}
				sources = []importer.Source{src}
			}
			if len(sources) == 0 {
				return fmt.Errorf("no import sources configured")
			}

			s, closeStore, err := openStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := importer.New(s, a.log).Run(ctx, sources)
			if report != nil {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tPARSED\tINSERTED\tSOURCE\tERROR")
				for _, res := range report.Results {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
						res.Index, res.Parsed, res.Inserted, res.Source, res.Error)
				}
				tw.Flush()
			}
			return err
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "series name for a single source")
	cmd.Flags().StringVar(&format, "format", "", "xml, html, yaml or json (default from the extension)")
	return cmd
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
