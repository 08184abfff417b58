// Package events publishes committed ledger changes to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// Event types.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeTransactionReversed = "transaction.reversed"
)

// Event is the JSON envelope sent to brokers.
type Event struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Transaction TransactionPayload `json:"transaction"`
	// Balance is the account balance after the change was committed.
	Balance string `json:"balance"`
}

// TransactionPayload is the wire form of a model.Transaction.
type TransactionPayload struct {
	UTR       string    `json:"utr"`
	Actor     string    `json:"actor"`
	Amount    string    `json:"amount"`
	Bonus     string    `json:"bonus"`
	Kind      string    `json:"kind"`
	Account   string    `json:"account"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"seq"`
}

// NewEvent builds an event of the given type for txn.
func NewEvent(typ string, txn model.Transaction, acct model.Account, at time.Time) Event {
	return Event{
		ID:         id.NewEventID(),
		Type:       typ,
		OccurredAt: at.UTC(),
		Transaction: TransactionPayload{
			UTR:       txn.UTR,
			Actor:     txn.Actor,
			Amount:    txn.Amount.String(),
			Bonus:     txn.Bonus.String(),
			Kind:      string(txn.Kind),
			Account:   txn.Account,
			Category:  txn.Category,
			Note:      txn.Note,
			Date:      id.FormatDate(txn.Date),
			CreatedAt: txn.CreatedAt.UTC(),
			Seq:       txn.Seq,
		},
		Balance: acct.Balance.String(),
	}
}

// ToJSON encodes the event.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event.
func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans an event out to several publishers concurrently.
type Multi []Publisher

// Publish sends e to every publisher and returns the first error.
func (m Multi) Publish(ctx context.Context, e Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range m {
		g.Go(func() error {
			return p.Publish(ctx, e)
		})
	}
	return g.Wait()
}

// Close closes every publisher, returning the first error.
func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
