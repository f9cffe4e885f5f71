package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	sessions []string
	events   []domain.Event
}

func (r *recordingPublisher) Publish(sessionID string, event domain.Event) {
	r.sessions = append(r.sessions, sessionID)
	r.events = append(r.events, event)
}

func TestFanout_DeliversToAllTargets(t *testing.T) {
	first := &recordingPublisher{}
	second := &recordingPublisher{}
	fanout := NewFanout(first, second)

	fanout.Publish("sess1", domain.Event{Type: domain.EventAddToCart})

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, "sess1", first.sessions[0])
}

// mockWriter implements messageWriter for testing
type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaSink_KeyedBySession(t *testing.T) {
	writer := &mockWriter{}
	sink := &KafkaSink{writer: writer}

	sink.Publish("sess1", domain.Event{Type: domain.EventRemoveCart, Message: "removed"})

	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("sess1"), writer.messages[0].Key)

	var event domain.Event
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, domain.EventRemoveCart, event.Type)
}

func TestKafkaSink_WriteErrorDoesNotPanic(t *testing.T) {
	sink := &KafkaSink{writer: &mockWriter{err: errors.New("broker gone")}}

	sink.Publish("sess1", domain.Event{Type: domain.EventError})
}

func TestKafkaSink_Close(t *testing.T) {
	writer := &mockWriter{}
	sink := &KafkaSink{writer: writer}

	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)
}
