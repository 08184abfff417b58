package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/model"
)

func newTxnCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Record, reverse, and list transactions",
	}
	cmd.AddCommand(
		newSubmitCommand(flags, model.KindDeposit),
		newSubmitCommand(flags, model.KindWithdraw),
		newReverseCommand(flags),
		newTxnListCommand(flags),
		newTxnShowCommand(flags),
	)
	return cmd
}

func newSubmitCommand(flags *globalFlags, kind model.Kind) *cobra.Command {
	var (
		utr, category, note, bonus, date string
	)

	cmd := &cobra.Command{
		Use:   string(kind) + " <account> <amount>",
		Short: fmt.Sprintf("Record a %s", kind),
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", args[1], err)
			}
			bonusAmt := decimal.Zero
			if bonus != "" {
				if bonusAmt, err = decimal.NewFromString(bonus); err != nil {
					return fmt.Errorf("parsing --bonus %q: %w", bonus, err)
				}
			}
			effective := time.Now().UTC()
			if date != "" {
				if effective, err = id.ParseDate(date); err != nil {
					return err
				}
			}

			txn, err := a.engine.SubmitTransaction(ctx, a.access, ledger.Submission{
				Actor:    flags.actor,
				Amount:   amount,
				Bonus:    bonusAmt,
				UTR:      utr,
				Account:  args[0],
				Category: category,
				Note:     note,
				Date:     effective,
				Kind:     kind,
			})
			if err != nil {
				return err
			}
			acct, err := a.engine.GetAccount(ctx, txn.Account)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s on %s (balance %s)\n",
				txn.Kind, txn.UTR, txn.Amount.StringFixed(2), txn.Account, acct.Balance.StringFixed(2))
			return nil
		}),
	}

	cmd.Flags().StringVar(&utr, "utr", "", "unique transaction reference (required)")
	cmd.Flags().StringVar(&category, "category", "", "category (site) the cash belongs to (required)")
	cmd.Flags().StringVar(&note, "note", "", "free-text note (required)")
	cmd.Flags().StringVar(&bonus, "bonus", "", "bonus amount recorded alongside")
	cmd.Flags().StringVar(&date, "date", "", "effective date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("utr")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func newReverseCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <utr>",
		Short: "Reverse a recorded transaction",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			txn, err := a.engine.ReverseTransaction(ctx, a.access, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s %s %s on %s\n", txn.Kind, txn.UTR, txn.Amount.StringFixed(2), txn.Account)
			return nil
		}),
	}
}

// filterFlags binds the transaction filter flags shared by list and export.
type filterFlags struct {
	account, category, kind, from, to string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.account, "account", "", "only this account")
	cmd.Flags().StringVar(&f.category, "category", "", "only this category")
	cmd.Flags().StringVar(&f.kind, "kind", "", "only deposit or withdraw")
	cmd.Flags().StringVar(&f.from, "from", "", "first effective date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last effective date YYYY-MM-DD")
}

func (f *filterFlags) filter() (ledger.Filter, error) {
	out := ledger.Filter{Account: f.account, Category: f.category}
	if f.kind != "" {
		kind, err := model.ParseKind(f.kind)
		if err != nil {
			return ledger.Filter{}, err
		}
		out.Kind = kind
	}
	r, err := parseRange(f.from, f.to)
	if err != nil {
		return ledger.Filter{}, err
	}
	out.Range = r
	return out, nil
}

func parseRange(from, to string) (model.DateRange, error) {
	var r model.DateRange
	var err error
	if from != "" {
		if r.From, err = id.ParseDate(from); err != nil {
			return r, err
		}
	}
	if to != "" {
		if r.To, err = id.ParseDate(to); err != nil {
			return r, err
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return r, nil
}

func newTxnListCommand(flags *globalFlags) *cobra.Command {
	ff := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
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
			printTransactions(cmd.OutOrStdout(), txns)
			return nil
		}),
	}
	ff.register(cmd)
	return cmd
}

func printTransactions(out io.Writer, txns []model.Transaction) {
	fmt.Fprintf(out, "%-12s %-10s %-8s %-12s %-12s %12s %10s  %s\n", "UTR", "DATE", "KIND", "ACCOUNT", "CATEGORY", "AMOUNT", "BONUS", "NOTE")
	for _, txn := range txns {
		fmt.Fprintf(out, "%-12s %-10s %-8s %-12s %-12s %12s %10s  %s\n",
			txn.UTR, id.FormatDate(txn.Date), txn.Kind, txn.Account, txn.Category,
			txn.Amount.StringFixed(2), txn.Bonus.StringFixed(2), txn.Note)
	}
}

func newTxnShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <utr>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			txn, err := a.engine.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "UTR:      %s\n", txn.UTR)
			fmt.Fprintf(out, "Kind:     %s\n", txn.Kind)
			fmt.Fprintf(out, "Amount:   %s\n", txn.Amount.StringFixed(2))
			fmt.Fprintf(out, "Bonus:    %s\n", txn.Bonus.StringFixed(2))
			fmt.Fprintf(out, "Account:  %s\n", txn.Account)
			fmt.Fprintf(out, "Category: %s\n", txn.Category)
			fmt.Fprintf(out, "Date:     %s\n", id.FormatDate(txn.Date))
			fmt.Fprintf(out, "Actor:    %s\n", txn.Actor)
			fmt.Fprintf(out, "Note:     %s\n", txn.Note)
			fmt.Fprintf(out, "Recorded: %s\n", txn.CreatedAt.Format(time.RFC3339))
			return nil
		}),
	}
}
