package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// FileName is the chart file created by `cashbook init`.
const FileName = "chart.csv"

// Creator opens accounts and categories. *ledger.Engine implements it.
type Creator interface {
	CreateAccount(ctx context.Context, access model.Access, name string, initialBalance decimal.Decimal) (model.Account, error)
	CreateCategory(ctx context.Context, access model.Access, name string) (model.Category, error)
}

// Summary counts what Apply did.
type Summary struct {
	Created  int
	Existing int
}

// Load reads a chart file from disk.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart: %w", err)
	}
	defer f.Close()

	entries, err := ReadChart(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart: %w", err)
	}
	return entries, nil
}

// Save writes a chart file to disk.
func Save(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart: %w", err)
	}
	if err := WriteChart(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Apply creates every entry that does not exist yet. Existing names are left
// untouched, so applying a chart twice is harmless.
func Apply(ctx context.Context, c Creator, access model.Access, entries []Entry) (Summary, error) {
	var sum Summary
	for _, e := range entries {
		var err error
		switch e.Kind {
		case EntryAccount:
			_, err = c.CreateAccount(ctx, access, e.Name, e.InitialBalance)
		case EntryCategory:
			_, err = c.CreateCategory(ctx, access, e.Name)
		default:
			err = fmt.Errorf("unknown kind %q", e.Kind)
		}

		switch {
		case err == nil:
			sum.Created++
		case errors.Is(err, ledger.ErrDuplicateKey):
			sum.Existing++
		default:
			return sum, fmt.Errorf("%s %s: %w", e.Kind, e.Name, err)
		}
	}
	return sum, nil
}
