package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/gitops"
	"github.com/cashbook-dev/cashbook/internal/journal"
	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// archivePath is where `cashbook archive` writes the full journal, relative
// to the ledger directory.
var archivePath = filepath.Join("journal", "ledger.csv")

func newArchiveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Export the full journal and commit it to the ledger's git repository",
		Args:  cobra.NoArgs,
		RunE: runWithApp(flags, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			dir, err := filepath.Abs(filepath.Dir(flags.configPath))
			if err != nil {
				return fmt.Errorf("resolving ledger directory: %w", err)
			}

			repo, err := gitops.Open(dir)
			if err != nil {
				return err
			}

			txns, err := a.engine.ListTransactions(ctx)
			if err != nil {
				return err
			}

			if err := writeJournal(filepath.Join(dir, archivePath), txns); err != nil {
				return err
			}

			msg := fmt.Sprintf("archive: %d transactions", len(txns))
			hash, err := repo.Commit([]string{archivePath}, msg, ledger.ActorFrom(ctx))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if hash == "" {
				fmt.Fprintln(out, "Journal unchanged since last archive")
				return nil
			}
			fmt.Fprintf(out, "Archived %d transactions (%s)\n", len(txns), hash)
			return nil
		}),
	}
}

func writeJournal(path string, txns []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal: %w", err)
	}
	if err := journal.WriteTransactions(fh, txns); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
