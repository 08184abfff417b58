package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/accounts"
)

func newSetupCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup [chart.csv]",
		Short: "Create the accounts and categories listed in a chart file",
		Long: "Create the accounts and categories listed in a chart file.\n" +
			"Defaults to chart.csv next to cashbook.yaml. Existing names are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			path := filepath.Join(filepath.Dir(flags.configPath), accounts.FileName)
			if len(args) > 0 {
				path = args[0]
			}

			entries, err := accounts.Load(path)
			if err != nil {
				return err
			}

			sum, err := accounts.Apply(ctx, a.engine, a.access, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d already existed\n", sum.Created, sum.Existing)
			return nil
		}),
	}
}
