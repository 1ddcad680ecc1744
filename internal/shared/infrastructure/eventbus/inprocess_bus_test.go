package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	eventTypes []string
	events     []*ConsumedEvent
	err        error
}

func (c *recordingConsumer) EventTypes() []string { return c.eventTypes }

func (c *recordingConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodedEvent(t *testing.T, routingKey string, payload string) []byte {
	t.Helper()
	data, err := json.Marshal(&ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    json.RawMessage(payload),
	})
	require.NoError(t, err)
	return data
}

func TestInProcessEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to the consumer registered for the routing key", func(t *testing.T) {
		bus := NewInProcessEventBus(testLogger())
		consumer := &recordingConsumer{eventTypes: []string{"sync.push"}}
		bus.RegisterConsumer(consumer)

		err := bus.Publish(ctx, "sync.push", encodedEvent(t, "sync.push", `{"messageId":"m-1"}`))

		require.NoError(t, err)
		require.Len(t, consumer.events, 1)
		assert.Equal(t, "sync.push", consumer.events[0].RoutingKey)
		assert.JSONEq(t, `{"messageId":"m-1"}`, string(consumer.events[0].Payload))
	})

	t.Run("an event without consumers is dropped silently", func(t *testing.T) {
		bus := NewInProcessEventBus(testLogger())

		err := bus.Publish(ctx, "quests.quest.created", encodedEvent(t, "quests.quest.created", `{}`))

		assert.NoError(t, err)
	})

	t.Run("a consumer failure does not fail the publish", func(t *testing.T) {
		bus := NewInProcessEventBus(testLogger())
		failing := &recordingConsumer{eventTypes: []string{"sync.push"}, err: errors.New("handler broke")}
		healthy := &recordingConsumer{eventTypes: []string{"sync.push"}}
		bus.RegisterConsumer(failing)
		bus.RegisterConsumer(healthy)

		err := bus.Publish(ctx, "sync.push", encodedEvent(t, "sync.push", `{}`))

		assert.NoError(t, err)
		assert.Len(t, failing.events, 1)
		assert.Len(t, healthy.events, 1)
	})

	t.Run("a malformed payload is skipped, not retried", func(t *testing.T) {
		bus := NewInProcessEventBus(testLogger())
		consumer := &recordingConsumer{eventTypes: []string{"sync.push"}}
		bus.RegisterConsumer(consumer)

		err := bus.Publish(ctx, "sync.push", []byte("not json"))

		assert.NoError(t, err)
		assert.Empty(t, consumer.events)
	})

	t.Run("fills a missing routing key from the publish call", func(t *testing.T) {
		bus := NewInProcessEventBus(testLogger())
		consumer := &recordingConsumer{eventTypes: []string{"sync.push"}}
		bus.RegisterConsumer(consumer)

		err := bus.Publish(ctx, "sync.push", encodedEvent(t, "", `{}`))

		require.NoError(t, err)
		require.Len(t, consumer.events, 1)
		assert.Equal(t, "sync.push", consumer.events[0].RoutingKey)
	})
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("routes only to matching consumers", func(t *testing.T) {
		registry := NewConsumerRegistry(testLogger())
		pushConsumer := &recordingConsumer{eventTypes: []string{"sync.push"}}
		questConsumer := &recordingConsumer{eventTypes: []string{"quests.quest.created"}}
		registry.Register(pushConsumer)
		registry.Register(questConsumer)

		err := registry.Dispatch(ctx, &ConsumedEvent{RoutingKey: "sync.push"})

		require.NoError(t, err)
		assert.Len(t, pushConsumer.events, 1)
		assert.Empty(t, questConsumer.events)
	})

	t.Run("one failure still delivers to the rest and surfaces the error", func(t *testing.T) {
		registry := NewConsumerRegistry(testLogger())
		failing := &recordingConsumer{eventTypes: []string{"sync.push"}, err: errors.New("handler broke")}
		healthy := &recordingConsumer{eventTypes: []string{"sync.push"}}
		registry.Register(failing)
		registry.Register(healthy)

		err := registry.Dispatch(ctx, &ConsumedEvent{RoutingKey: "sync.push"})

		assert.Error(t, err)
		assert.Len(t, healthy.events, 1)
	})
}
