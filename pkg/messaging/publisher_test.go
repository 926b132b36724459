package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/messaging"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func TestPublisher_Publish(t *testing.T) {
	ch := &recordingChannel{}
	p := messaging.NewChannelPublisher(ch, messaging.ExchangeInventoryEvents, "inventory-service", logger.Nop())

	ctx := messaging.WithCorrelationID(context.Background(), "corr-1")
	err := p.Publish(ctx, messaging.EventStockConsumed, messaging.StockMovedEvent{BatchID: "b-1", Delta: -3})
	require.NoError(t, err)

	assert.Equal(t, messaging.ExchangeInventoryEvents, ch.exchange)
	assert.Equal(t, messaging.EventStockConsumed, ch.key)
	assert.Equal(t, "corr-1", ch.msg.CorrelationId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var event messaging.Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, messaging.EventStockConsumed, event.Type)
	assert.Equal(t, "inventory-service", event.Source)
	assert.Equal(t, ch.msg.MessageId, event.ID)

	var data messaging.StockMovedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "b-1", data.BatchID)
	assert.Equal(t, -3, data.Delta)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	p := messaging.NewChannelPublisher(ch, messaging.ExchangeInventoryEvents, "inventory-service", logger.Nop())

	err := p.Publish(context.Background(), messaging.EventAlertRaised, messaging.AlertEvent{AlertID: "a-1"})
	assert.Error(t, err)
}
