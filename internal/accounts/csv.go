// Package accounts reads and applies chart files: the accounts (banks) and
// categories (sites) a ledger starts with.
package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// EntryKind says whether a chart row opens an account or a category.
type EntryKind string

const (
	EntryAccount  EntryKind = "account"
	EntryCategory EntryKind = "category"
)

// Entry is one chart row. InitialBalance applies to accounts only.
type Entry struct {
	Kind           EntryKind
	Name           string
	InitialBalance decimal.Decimal
}

// Header is the CSV header for chart.csv.
const Header = "kind,name,initial_balance"

const (
	numFields  = 3
	colKind    = 0
	colName    = 1
	colInitial = 2
)

// ReadChart reads chart.csv.
func ReadChart(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chart CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteChart writes chart.csv.
func WriteChart(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colKind] = string(e.Kind)
	row[colName] = e.Name
	if e.Kind == EntryAccount {
		row[colInitial] = e.InitialBalance.StringFixed(2)
	}
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	e := Entry{
		Kind: EntryKind(strings.ToLower(strings.TrimSpace(record[colKind]))),
		Name: strings.TrimSpace(record[colName]),
	}

	switch e.Kind {
	case EntryAccount:
		e.InitialBalance = decimal.Zero
		if s := strings.TrimSpace(record[colInitial]); s != "" {
			initial, err := decimal.NewFromString(s)
			if err != nil {
				return Entry{}, fmt.Errorf("parsing initial_balance %q: %w", s, err)
			}
			e.InitialBalance = initial
		}
	case EntryCategory:
		if strings.TrimSpace(record[colInitial]) != "" {
			return Entry{}, fmt.Errorf("category %q cannot have an initial balance", e.Name)
		}
	default:
		return Entry{}, fmt.Errorf("unknown kind %q", record[colKind])
	}
	return e, nil
}
