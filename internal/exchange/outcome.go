// ABOUTME: Typed outcome of a single question/answer exchange
// ABOUTME: Defines outcome kinds, the error taxonomy sentinels, and user-facing failure messages

package exchange

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which terminal state an exchange reached.
type Kind int

const (
	// Pending is the zero Kind: the exchange has not resolved yet.
	Pending Kind = iota
	Answered
	RateLimited
	Failed
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Answered:
		return "answered"
	case RateLimited:
		return "rate_limited"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error taxonomy. Every Outcome other than Answered carries one of these in Err.
var (
	// ErrNetwork means the request never produced an HTTP status.
	ErrNetwork = errors.New("network error")
	// ErrRateLimited means the endpoint answered 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer means the endpoint answered with a non-2xx status.
	ErrServer = errors.New("server error")
	// ErrMalformedResponse means a 2xx body had no recognizable answer field.
	ErrMalformedResponse = errors.New("malformed response")
)

// User-facing failure messages.
const (
	MessageNetwork     = "network error"
	MessageNoAnswer    = "no answer field found"
	messageHTTPFailure = "request failed (HTTP %d)"
)

// Outcome is the normalized result of one Send.
type Outcome struct {
	Kind Kind

	// Text is the answer for Answered outcomes.
	Text string
	// Followups are the suggested next questions for Answered outcomes,
	// exactly as the endpoint returned them (string entries only).
	Followups []string
	// Message is the user-facing failure text for Failed outcomes.
	Message string

	// Err wraps one of the taxonomy sentinels; nil for Answered.
	Err error
	// Status is the HTTP status code, or 0 when the transport failed.
	Status int
	// Latency is the wall time of the round trip.
	Latency time.Duration
}

// AnsweredOutcome builds an Answered outcome.
func AnsweredOutcome(text string, followups []string) Outcome {
	if followups == nil {
		followups = []string{}
	}
	return Outcome{Kind: Answered, Text: text, Followups: followups}
}

// RateLimitedOutcome builds a RateLimited outcome.
func RateLimitedOutcome() Outcome {
	return Outcome{Kind: RateLimited, Status: 429, Err: ErrRateLimited}
}

// FailedOutcome builds a Failed outcome with the given message and cause.
func FailedOutcome(message string, err error) Outcome {
	return Outcome{Kind: Failed, Message: message, Err: err}
}

// NetworkFailure is the outcome of a transport-level failure.
func NetworkFailure(cause error) Outcome {
	err := ErrNetwork
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrNetwork, cause)
	}
	return FailedOutcome(MessageNetwork, err)
}
