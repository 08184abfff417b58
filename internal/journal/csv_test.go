package journal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func exportFixture() []model.Transaction {
	return []model.Transaction{
		{
			UTR:       "U3",
			Date:      date(2025, 1, 20),
			Kind:      model.KindWithdraw,
			Account:   "HDFC",
			Category:  "north",
			Amount:    dec("1500"),
			Actor:     "ravi",
			Note:      "counter, evening",
			CreatedAt: time.Date(2025, 1, 20, 18, 5, 0, 0, time.UTC),
		},
		{
			UTR:       "U1",
			Date:      date(2025, 1, 15),
			Kind:      model.KindDeposit,
			Account:   "HDFC",
			Category:  "north",
			Amount:    dec("500"),
			Bonus:     dec("12.5"),
			Actor:     "ravi",
			Note:      "cash deposit",
			CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	}
}

func TestWriteTransactions_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, exportFixture()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export", buf.Bytes())
}

func TestRoundTrip(t *testing.T) {
	txns := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))

	got, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(txns))

	for i := range txns {
		assert.Equal(t, txns[i].UTR, got[i].UTR)
		assert.True(t, txns[i].Date.Equal(got[i].Date))
		assert.Equal(t, txns[i].Kind, got[i].Kind)
		assert.Equal(t, txns[i].Account, got[i].Account)
		assert.Equal(t, txns[i].Category, got[i].Category)
		assert.True(t, txns[i].Amount.Equal(got[i].Amount), "amount mismatch row %d", i)
		assert.True(t, txns[i].Bonus.Equal(got[i].Bonus), "bonus mismatch row %d", i)
		assert.Equal(t, txns[i].Actor, got[i].Actor)
		assert.Equal(t, txns[i].Note, got[i].Note)
		assert.True(t, txns[i].CreatedAt.Equal(got[i].CreatedAt))
	}
}

func TestReadTransactions_ImportRow(t *testing.T) {
	input := Header + "\n" +
		"U9,2025-03-01,Deposit,HDFC,north,75,,meena,opening float,\n"

	got, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.KindDeposit, got[0].Kind)
	assert.True(t, got[0].Bonus.IsZero())
	assert.True(t, got[0].CreatedAt.IsZero())
}

func TestReadTransactions_Empty(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadTransactions_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad date", "U1,01/02/2025,deposit,A,n,1,,x,y,", "invalid date"},
		{"bad kind", "U1,2025-01-02,transfer,A,n,1,,x,y,", "unknown transaction kind"},
		{"bad amount", "U1,2025-01-02,deposit,A,n,ten,,x,y,", "parsing amount"},
		{"bad bonus", "U1,2025-01-02,deposit,A,n,1,lots,x,y,", "parsing bonus"},
		{"bad created_at", "U1,2025-01-02,deposit,A,n,1,,x,y,yesterday", "parsing created_at"},
		{"short row", "U1,2025-01-02", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTransactions(strings.NewReader(Header + "\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadTransactions_WrongHeader(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("a,b,c,d,e,f,g,h,i,j\n"))
	assert.ErrorContains(t, err, "unexpected header")
}

func TestMarshalTransaction_Formatting(t *testing.T) {
	row := MarshalTransaction(model.Transaction{
		UTR:    "U1",
		Date:   date(2025, 1, 3),
		Kind:   model.KindDeposit,
		Amount: dec("4"),
	})
	assert.Equal(t, "2025-01-03", row[colDate])
	assert.Equal(t, "4.00", row[colAmount])
	assert.Equal(t, "0.00", row[colBonus])
	assert.Empty(t, row[colCreatedAt])
}
