// ABOUTME: Tests for EventBroadcaster fan-out pub/sub system
// ABOUTME: Covers subscribe, publish, unsubscribe, context cancellation, concurrency

package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(id string) Event {
	return Event{
		Type:       EventUserMessageAppended,
		ExchangeID: id,
		Text:       "hello from " + id,
		Timestamp:  time.Now(),
	}
}

func TestBroadcaster_SingleSubscriberReceivesEvent(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())

	b.Publish(makeEvent("evt-1"))

	select {
	case received := <-ch:
		assert.Equal(t, "evt-1", received.ExchangeID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_MultipleSubscribersReceiveSameEvent(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()

	ch1, _ := b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)
	ch3, _ := b.Subscribe(ctx)

	b.Publish(makeEvent("evt-2"))

	for i, ch := range []<-chan Event{ch1, ch2, ch3} {
		select {
		case received := <-ch:
			assert.Equal(t, "evt-2", received.ExchangeID, "subscriber %d got wrong event", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBroadcaster_PreservesPublishOrder(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())

	for _, id := range []string{"a", "b", "c"} {
		b.Publish(makeEvent(id))
	}

	for _, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, (<-ch).ExchangeID)
	}
}

func TestBroadcaster_SlowConsumerDoesNotBlockPublisher(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()

	// Subscribe but never read from the first channel (slow consumer)
	_, _ = b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Publish more events than the buffer size to overflow the slow consumer
		for range 100 {
			b.Publish(makeEvent("evt-overflow"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}

	assert.Len(t, ch2, subscriberBufferSize, "buffer should be full, extra events dropped")
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, subID := b.Subscribe(ctx)

	b.mu.RLock()
	_, exists := b.subscribers[subID]
	b.mu.RUnlock()
	assert.True(t, exists, "subscription should exist before cancel")

	cancel()

	// Channel should be closed
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after context cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}

	b.mu.RLock()
	_, exists = b.subscribers[subID]
	b.mu.RUnlock()
	assert.False(t, exists, "subscription should be removed after context cancel")
}

func TestBroadcaster_ManualUnsubscribe(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(t.Context())

	b.Unsubscribe(subID)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after unsubscribe")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing and unsubscribing again should not panic
	b.Publish(makeEvent("evt-after-unsub"))
	b.Unsubscribe(subID)
}

func TestBroadcaster_CloseClosesAllSubscriptions(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch1, _ := b.Subscribe(t.Context())
	ch2, _ := b.Subscribe(t.Context())

	b.Close()

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case _, ok := <-ch:
			assert.False(t, ok, "channel %d should be closed after Close()", i)
		case <-time.After(time.Second):
			t.Fatalf("channel %d not closed after Close()", i)
		}
	}

	// Close is idempotent and late subscribers get a closed channel
	b.Close()
	late, _ := b.Subscribe(t.Context())
	_, ok := <-late
	assert.False(t, ok)
}

func TestBroadcaster_ConcurrentPublishSubscribe(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	var wg sync.WaitGroup

	for range 10 {
		wg.Go(func() {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			ch, id := b.Subscribe(ctx)
			for range 5 {
				select {
				case <-ch:
				case <-time.After(500 * time.Millisecond):
					return
				}
			}
			b.Unsubscribe(id)
		})
	}

	for range 10 {
		wg.Go(func() {
			for range 10 {
				b.Publish(makeEvent("concurrent-evt"))
			}
		})
	}

	wg.Wait()
	// If we get here without deadlock or panic, the test passes
}

func TestBroadcaster_SubscribeReturnsUniqueIDs(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	_, id1 := b.Subscribe(t.Context())
	_, id2 := b.Subscribe(t.Context())
	_, id3 := b.Subscribe(t.Context())

	require.NotEqual(t, id1, id2)
	require.NotEqual(t, id1, id3)
	require.NotEqual(t, id2, id3)
}

func TestBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	// Should not panic
	b.Publish(makeEvent("evt-nowhere"))
}

func TestEvent_Terminal(t *testing.T) {
	assert.False(t, Event{Type: EventUserMessageAppended}.Terminal())
	assert.False(t, Event{Type: EventPendingStarted}.Terminal())
	assert.True(t, Event{Type: EventAnsweredReceived}.Terminal())
	assert.True(t, Event{Type: EventRateLimitedReceived}.Terminal())
	assert.True(t, Event{Type: EventFailedReceived}.Terminal())
}
