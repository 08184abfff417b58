// Package journal reads and writes the ledger as CSV, for export and bulk import.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// Header is the CSV header for ledger exports and import files.
const Header = "utr,date,kind,account,category,amount,bonus,actor,note,created_at"

const (
	numFields    = 10
	colUTR       = 0
	colDate      = 1
	colKind      = 2
	colAccount   = 3
	colCategory  = 4
	colAmount    = 5
	colBonus     = 6
	colActor     = 7
	colNote      = 8
	colCreatedAt = 9
)

// ReadTransactions reads all rows after the header.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes txns with a header row.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colUTR] = txn.UTR
	row[colDate] = id.FormatDate(txn.Date)
	row[colKind] = string(txn.Kind)
	row[colAccount] = txn.Account
	row[colCategory] = txn.Category
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colBonus] = txn.Bonus.StringFixed(2)
	row[colActor] = txn.Actor
	row[colNote] = txn.Note
	if !txn.CreatedAt.IsZero() {
		row[colCreatedAt] = txn.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction. Bonus and
// created_at may be empty.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := id.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, err
	}

	kind, err := model.ParseKind(record[colKind])
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	bonus := decimal.Zero
	if s := strings.TrimSpace(record[colBonus]); s != "" {
		bonus, err = decimal.NewFromString(s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing bonus %q: %w", record[colBonus], err)
		}
	}

	var created time.Time
	if s := strings.TrimSpace(record[colCreatedAt]); s != "" {
		created, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing created_at %q: %w", s, err)
		}
	}

	return model.Transaction{
		UTR:       record[colUTR],
		Date:      date,
		Kind:      kind,
		Account:   record[colAccount],
		Category:  record[colCategory],
		Amount:    amount,
		Bonus:     bonus,
		Actor:     record[colActor],
		Note:      record[colNote],
		CreatedAt: created,
	}, nil
}
