package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/model"
)

func testTxn() model.Transaction {
	return model.Transaction{
		UTR:       "U1",
		Actor:     "ravi",
		Amount:    decimal.RequireFromString("500.00"),
		Bonus:     decimal.RequireFromString("12.5"),
		Kind:      model.KindDeposit,
		Account:   "HDFC",
		Category:  "north",
		Note:      "cash",
		Date:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Seq:       7,
	}
}

func TestNewEvent(t *testing.T) {
	acct := model.Account{Name: "HDFC", Balance: decimal.NewFromInt(1500)}
	e := NewEvent(TypeTransactionRecorded, testTxn(), acct, time.Date(2025, 1, 15, 10, 30, 1, 0, time.UTC))

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeTransactionRecorded, e.Type)
	assert.Equal(t, "U1", e.Transaction.UTR)
	assert.Equal(t, "500", e.Transaction.Amount)
	assert.Equal(t, "12.5", e.Transaction.Bonus)
	assert.Equal(t, "2025-01-15", e.Transaction.Date)
	assert.Equal(t, "1500", e.Balance)
	assert.Equal(t, int64(7), e.Transaction.Seq)
}

func TestEventJSON(t *testing.T) {
	e := NewEvent(TypeTransactionReversed, testTxn(), model.Account{Balance: decimal.NewFromInt(1000)}, time.Now())

	data, err := e.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"transaction.reversed"`)
	assert.Contains(t, string(data), `"utr":"U1"`)

	got, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Transaction, got.Transaction)
	assert.True(t, e.OccurredAt.Equal(got.OccurredAt))
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("{"))
	assert.Error(t, err)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	e := NewEvent(TypeTransactionRecorded, testTxn(), model.Account{}, time.Now())
	require.NoError(t, m.Publish(context.Background(), e))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMulti_Error(t *testing.T) {
	boom := errors.New("broker down")
	m := Multi{&recorder{}, &recorder{err: boom}}

	err := m.Publish(context.Background(), Event{})
	assert.ErrorIs(t, err, boom)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
