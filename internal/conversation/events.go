// ABOUTME: Render events emitted by the conversation controller
// ABOUTME: One event type per presentation callback, plus the fixed user-facing texts

package conversation

import "time"

// EventType names a render event.
type EventType string

const (
	EventUserMessageAppended EventType = "user_message_appended"
	EventPendingStarted      EventType = "pending_started"
	EventAnsweredReceived    EventType = "answered_received"
	EventRateLimitedReceived EventType = "rate_limited_received"
	EventFailedReceived      EventType = "failed_received"
)

const (
	// PlaceholderText is shown while an exchange is pending.
	PlaceholderText = "Typing…"

	// RateLimitNotice replaces the placeholder when the endpoint answers 429.
	RateLimitNotice = "You're sending questions too quickly. Please wait ~1 minute and try again."
)

// Event is a state change for the presentation surface to paint.
//
// Which fields are set depends on Type:
//
//   - UserMessageAppended: Text is the question.
//   - PendingStarted: Text is PlaceholderText.
//   - AnsweredReceived: Text is the answer, Followups holds at most
//     MaxFollowups entries and FollowupSetID identifies them for ClickFollowup.
//   - RateLimitedReceived: Message is RateLimitNotice.
//   - FailedReceived: Message is the failure text.
type Event struct {
	Type          EventType
	ExchangeID    string
	Text          string
	Message       string
	Followups     []string
	FollowupSetID string
	Timestamp     time.Time
}

// Terminal reports whether the event resolves a pending exchange.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventAnsweredReceived, EventRateLimitedReceived, EventFailedReceived:
		return true
	default:
		return false
	}
}
