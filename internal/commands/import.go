package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/importer"
)

func newImportCommand(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Submit every CSV file in the import directory",
		Args:  cobra.NoArgs,
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q", format)
			}

			im := importer.New(a.cfg.Import.Dir, parser, a.engine)
			results, err := im.Run(ctx, a.access)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No CSV files in %s\n", a.cfg.Import.Dir)
				return nil
			}

			rejected := 0
			for _, res := range results {
				fmt.Fprintf(out, "%s: %d imported, %d duplicates, %d rejected\n",
					res.File, res.Imported, res.Duplicates, len(res.Rejected))
				for _, re := range res.Rejected {
					fmt.Fprintf(out, "  %s: %v\n", re.UTR, re.Err)
				}
				rejected += len(res.Rejected)
			}
			if rejected > 0 {
				return fmt.Errorf("%d rows rejected; fix the files and re-run import", rejected)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&format, "format", "ledger", "import file format")
	return cmd
}
