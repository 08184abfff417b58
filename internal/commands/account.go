package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAccountCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts (banks)",
	}
	cmd.AddCommand(
		newAccountCreateCommand(flags),
		newAccountListCommand(flags),
		newAccountShowCommand(flags),
		newAccountDeleteCommand(flags),
	)
	return cmd
}

func newAccountCreateCommand(flags *globalFlags) *cobra.Command {
	var initial string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Open an account with an initial balance",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(initial)
			if err != nil {
				return fmt.Errorf("parsing --initial %q: %w", initial, err)
			}
			acct, err := a.engine.CreateAccount(ctx, a.access, args[0], amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s with balance %s\n", acct.Name, acct.Balance.StringFixed(2))
			return nil
		}),
	}

	cmd.Flags().StringVar(&initial, "initial", "0", "initial balance")
	return cmd
}

func newAccountListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			accts, err := a.engine.ListAccounts(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s %14s %14s\n", "ACCOUNT", "INITIAL", "BALANCE")
			for _, acct := range accts {
				fmt.Fprintf(out, "%-20s %14s %14s\n", acct.Name, acct.InitialBalance.StringFixed(2), acct.Balance.StringFixed(2))
			}
			return nil
		}),
	}
}

func newAccountShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			acct, err := a.engine.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account: %s\n", acct.Name)
			fmt.Fprintf(out, "Initial: %s\n", acct.InitialBalance.StringFixed(2))
			fmt.Fprintf(out, "Balance: %s\n", acct.Balance.StringFixed(2))
			return nil
		}),
	}
}

func newAccountDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account with no transactions",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := a.engine.DeleteAccount(ctx, a.access, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", args[0])
			return nil
		}),
	}
}
