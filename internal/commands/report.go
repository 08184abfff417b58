package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/journal"
)

func newStatsCommand(flags *globalFlags) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics for a date range",
		Args:  cobra.NoArgs,
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			r, err := parseRange(from, to)
			if err != nil {
				return err
			}
			stats, err := a.engine.ComputeStatistics(ctx, r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transactions:     %d\n", stats.TransactionCount)
			fmt.Fprintf(out, "Total deposit:    %s\n", stats.TotalDeposit.StringFixed(2))
			fmt.Fprintf(out, "Total withdraw:   %s\n", stats.TotalWithdraw.StringFixed(2))
			fmt.Fprintf(out, "Net balance:      %s\n", stats.NetBalance.StringFixed(2))
			fmt.Fprintf(out, "Total bonus:      %s\n", stats.TotalBonus.StringFixed(2))
			fmt.Fprintf(out, "Initial balances: %s\n", stats.TotalInitialBalance.StringFixed(2))
			fmt.Fprintf(out, "Adjustments:      %s\n", stats.TotalAdjustment.StringFixed(2))
			printTotals(out, "By account", stats.ByAccount)
			printTotals(out, "By category", stats.ByCategory)
			return nil
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first effective date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last effective date YYYY-MM-DD")
	return cmd
}

func printTotals(out io.Writer, title string, totals map[string]decimal.Decimal) {
	if len(totals) == 0 {
		return
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(out, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-20s %14s\n", k, totals[k].StringFixed(2))
	}
}

func newExportCommand(flags *globalFlags) *cobra.Command {
	ff := &filterFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			txns, err := a.engine.FilterTransactions(ctx, f)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return journal.WriteTransactions(cmd.OutOrStdout(), txns)
			}

			if err := writeJournal(output, txns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", len(txns), output)
			return nil
		}),
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
