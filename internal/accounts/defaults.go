package accounts

import "github.com/shopspring/decimal"

// DefaultChart is written by `cashbook init`: one cash box and one site.
func DefaultChart() []Entry {
	return []Entry{
		{Kind: EntryAccount, Name: "Cash", InitialBalance: decimal.Zero},
		{Kind: EntryCategory, Name: "main"},
	}
}
