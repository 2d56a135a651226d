package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	published []Event
	closed    bool
}

func (p *flakyPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFirst {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, ev)
	return nil
}

func (p *flakyPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func fastOptions() DispatcherOptions {
	return DispatcherOptions{QueueSize: 8, MaxAttempts: 3, InitialBackoff: time.Millisecond, PublishTimeout: time.Second}
}

func TestDispatcher_RetriesUntilPublished(t *testing.T) {
	pub := &flakyPublisher{failFirst: 2}
	d := NewDispatcher(pub, fastOptions())

	d.Dispatch(context.Background(), NewEvent(EventBookingConfirmed, uuid.New()))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 3, pub.calls)
	assert.Len(t, pub.published, 1)
	assert.True(t, pub.closed)
}

func TestDispatcher_GivesUpWithoutPanicking(t *testing.T) {
	pub := &flakyPublisher{failFirst: 100}
	d := NewDispatcher(pub, fastOptions())

	d.Dispatch(context.Background(), NewEvent(EventBookingCancelled, uuid.New()))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 3, pub.calls)
	assert.Empty(t, pub.published)
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub, fastOptions())
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), NewEvent(EventBulkCompleted, uuid.New()))
	})
	assert.Zero(t, pub.calls)
}

func TestDispatcher_CancelledRequestContextStillDelivers(t *testing.T) {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, NewEvent(EventBookingRescheduled, uuid.New()))
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, pub.published, 1)
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}}}
	c := headerCarrier{msg: &msg}

	c.Set("traceparent", "00-abc-01")
	c.Set("traceparent", "00-def-01")

	assert.Equal(t, "00-def-01", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"event_type", "traceparent"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}
