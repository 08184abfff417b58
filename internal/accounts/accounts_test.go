package accounts

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store/memory"
)

func TestRoundTrip(t *testing.T) {
	entries := []Entry{
		{Kind: EntryAccount, Name: "HDFC", InitialBalance: decimal.RequireFromString("1000.5")},
		{Kind: EntryCategory, Name: "north"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))
	assert.Contains(t, buf.String(), "account,HDFC,1000.50\n")
	assert.Contains(t, buf.String(), "category,north,\n")

	got, err := ReadChart(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, EntryAccount, got[0].Kind)
	assert.True(t, got[0].InitialBalance.Equal(entries[0].InitialBalance))
	assert.Equal(t, "north", got[1].Name)
}

func TestReadChart_CommentsAndDefaults(t *testing.T) {
	input := Header + "\n# banks\nAccount, SBI ,\ncategory,south,\n"
	got, err := ReadChart(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SBI", got[0].Name)
	assert.True(t, got[0].InitialBalance.IsZero())
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		row  []string
		want string
	}{
		{[]string{"account", "A"}, "expected 3 fields"},
		{[]string{"vault", "A", ""}, "unknown kind"},
		{[]string{"account", "A", "lots"}, "parsing initial_balance"},
		{[]string{"category", "north", "5"}, "cannot have an initial balance"},
	}
	for _, tt := range tests {
		_, err := UnmarshalEntry(tt.row)
		require.Error(t, err, "%v", tt.row)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, DefaultChart()))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestApply(t *testing.T) {
	e := ledger.New(memory.New())
	ctx := context.Background()
	entries := []Entry{
		{Kind: EntryAccount, Name: "HDFC", InitialBalance: decimal.NewFromInt(100)},
		{Kind: EntryCategory, Name: "north"},
	}

	sum, err := Apply(ctx, e, model.AccessReadWrite, entries)
	require.NoError(t, err)
	assert.Equal(t, Summary{Created: 2}, sum)

	sum, err = Apply(ctx, e, model.AccessReadWrite, entries)
	require.NoError(t, err)
	assert.Equal(t, Summary{Existing: 2}, sum)

	acct, err := e.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)))
}

func TestApply_ReadOnly(t *testing.T) {
	e := ledger.New(memory.New())
	_, err := Apply(context.Background(), e, model.AccessReadOnly, DefaultChart())
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
}
