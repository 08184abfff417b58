package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"deposit", KindDeposit, false},
		{"Withdraw", KindWithdraw, false},
		{" DEPOSIT ", KindDeposit, false},
		{"transfer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseKind(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseKind(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseAccess(t *testing.T) {
	tests := []struct {
		in   string
		want Access
	}{
		{"read-only", AccessReadOnly},
		{"readonly", AccessReadOnly},
		{"read-write", AccessReadWrite},
		{"readwrite", AccessReadWrite},
		{"READWRITE", AccessReadWrite},
	}
	for _, tt := range tests {
		got, err := ParseAccess(tt.in)
		require.NoError(t, err, "ParseAccess(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseAccess("admin")
	assert.Error(t, err)
}

func TestAccessCanWrite(t *testing.T) {
	assert.True(t, AccessReadWrite.CanWrite())
	assert.False(t, AccessReadOnly.CanWrite())
	assert.False(t, Access("").CanWrite())
}

func TestTransactionDelta(t *testing.T) {
	dep := Transaction{Kind: KindDeposit, Amount: decimal.NewFromInt(500)}
	wd := Transaction{Kind: KindWithdraw, Amount: decimal.NewFromInt(200)}

	assert.True(t, dep.Delta().Equal(decimal.NewFromInt(500)))
	assert.True(t, wd.Delta().Equal(decimal.NewFromInt(-200)))
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{From: day(2025, 1, 10), To: day(2025, 1, 20)}

	assert.True(t, r.Contains(day(2025, 1, 10)), "from bound is inclusive")
	assert.True(t, r.Contains(day(2025, 1, 20)), "to bound is inclusive")
	assert.True(t, r.Contains(time.Date(2025, 1, 20, 23, 59, 0, 0, time.UTC)), "time of day is ignored")
	assert.False(t, r.Contains(day(2025, 1, 9)))
	assert.False(t, r.Contains(day(2025, 1, 21)))
}

func TestDateRangeUnbounded(t *testing.T) {
	var all DateRange
	assert.True(t, all.Contains(day(1999, 12, 31)))
	assert.True(t, all.Contains(day(2099, 1, 1)))

	from := DateRange{From: day(2025, 3, 1)}
	assert.False(t, from.Contains(day(2025, 2, 28)))
	assert.True(t, from.Contains(day(2030, 1, 1)))

	to := DateRange{To: day(2025, 3, 1)}
	assert.True(t, to.Contains(day(2000, 1, 1)))
	assert.False(t, to.Contains(day(2025, 3, 2)))
}
