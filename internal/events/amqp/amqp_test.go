package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/events"
)

type fakeChannel struct {
	exchange, key string
	msgs          []amqp091.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testEvent() events.Event {
	return events.Event{
		ID:          "evt-1",
		Type:        events.TypeTransactionRecorded,
		OccurredAt:  time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Transaction: events.TransactionPayload{UTR: "U1", Account: "HDFC", Amount: "500"},
		Balance:     "1500",
	}
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchangeName: "cashbook", queueName: "ledger"}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "cashbook", ch.exchange)
	assert.Equal(t, "ledger", ch.key)

	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, events.TypeTransactionRecorded, msg.Type)

	got, err := events.FromJSON(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "U1", got.Transaction.UTR)
}

func TestPublish_Error(t *testing.T) {
	p := &Publisher{channel: &fakeChannel{err: errors.New("channel closed")}}
	err := p.Publish(context.Background(), testEvent())
	assert.ErrorContains(t, err, "publish message")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch}
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
