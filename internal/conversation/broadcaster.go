// ABOUTME: In-memory fan-out event broadcaster for the presentation surface
// ABOUTME: Publishes render events to every subscriber without blocking the controller

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// EventBroadcaster provides in-memory pub/sub for render events.
// Each subscriber receives every event published after it subscribed.
type EventBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event // subID -> ch
	closed      bool
	logger      *slog.Logger
}

// NewEventBroadcaster creates a broadcaster. Pass nil logger for default.
func NewEventBroadcaster(logger *slog.Logger) *EventBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBroadcaster{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber. Returns a channel that receives events
// and a subscription ID for later unsubscription. The subscription is
// automatically cleaned up when ctx is cancelled. Subscribing to a closed
// broadcaster returns an already closed channel.
func (b *EventBroadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an event to all subscribers.
// Non-blocking: events are dropped for subscribers whose channels are full.
func (b *EventBroadcaster) Publish(event Event) {
	// Sends happen under the read lock so Unsubscribe cannot close a
	// channel mid-send; every send is non-blocking.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subID, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"sub_id", subID,
				"event_type", event.Type,
				"exchange_id", event.ExchangeID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *EventBroadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, exists := b.subscribers[subID]
	if !exists {
		return
	}

	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *EventBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
