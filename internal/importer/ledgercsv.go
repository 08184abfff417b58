package importer

import (
	"io"

	"github.com/cashbook-dev/cashbook/internal/journal"
	"github.com/cashbook-dev/cashbook/internal/ledger"
)

// LedgerParser reads the same CSV layout that export writes.
type LedgerParser struct{}

// Format returns the parser name.
func (p *LedgerParser) Format() string { return "ledger" }

// Parse reads ledger CSV rows as submissions. created_at is ignored; the
// ledger stamps its own.
func (p *LedgerParser) Parse(r io.Reader) ([]ledger.Submission, error) {
	txns, err := journal.ReadTransactions(r)
	if err != nil {
		return nil, err
	}

	var subs []ledger.Submission
	for _, txn := range txns {
		subs = append(subs, ledger.Submission{
			Actor:    txn.Actor,
			Amount:   txn.Amount,
			Bonus:    txn.Bonus,
			UTR:      txn.UTR,
			Account:  txn.Account,
			Category: txn.Category,
			Note:     txn.Note,
			Date:     txn.Date,
			Kind:     txn.Kind,
		})
	}
	return subs, nil
}
