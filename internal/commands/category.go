package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCategoryCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"site"},
		Short:   "Manage categories (sites)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
				cat, err := a.engine.CreateCategory(ctx, a.access, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category %s\n", cat.Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories and adjustments",
			Args:  cobra.NoArgs,
			RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
				cats, err := a.engine.ListCategories(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-20s %14s\n", "CATEGORY", "ADJUSTMENT")
				for _, cat := range cats {
					fmt.Fprintf(out, "%-20s %14s\n", cat.Name, cat.Adjustment.StringFixed(2))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "adjust <name> <value>",
			Short: "Overwrite a category's adjustment counter",
			Args:  cobra.ExactArgs(2),
			RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
				value, err := decimal.NewFromString(args[1])
				if err != nil {
					return fmt.Errorf("parsing adjustment %q: %w", args[1], err)
				}
				if err := a.engine.SetAdjustment(ctx, a.access, args[0], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set adjustment for %s to %s\n", args[0], value.StringFixed(2))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a category",
			Args:  cobra.ExactArgs(1),
			RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
				if err := a.engine.DeleteCategory(ctx, a.access, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}
