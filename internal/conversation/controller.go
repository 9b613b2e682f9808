// ABOUTME: Single-flight conversation controller sequencing question/answer exchanges
// ABOUTME: Owns the transcript, the follow-up chip sets, and publishes render events

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/edi-chat/internal/exchange"
)

// MaxFollowups caps how many follow-up suggestions are shown per answer.
const MaxFollowups = 6

var (
	// ErrNoSender is returned by New when Options.Sender is nil.
	ErrNoSender = errors.New("conversation: sender is required")
	// ErrNoSession is returned by New when neither a session ID nor an
	// identity provider is supplied.
	ErrNoSession = errors.New("conversation: session id or identity provider is required")
)

// State is the controller's turn-taking state.
type State int

const (
	// Idle means no exchange is in flight.
	Idle State = iota
	// AwaitingResponse means exactly one exchange is pending.
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IdentityProvider hands out the anonymous session identifier.
type IdentityProvider interface {
	GetOrCreate(ctx context.Context) string
}

// Exchange is one question paired with its outcome. Outcome.Kind is
// exchange.Pending until the exchange resolves.
type Exchange struct {
	ID         string
	Question   string
	Outcome    exchange.Outcome
	AskedAt    time.Time
	ResolvedAt time.Time
}

// Pending reports whether the exchange is still awaiting its outcome.
func (e Exchange) Pending() bool {
	return e.Outcome.Kind == exchange.Pending
}

// FollowupSet is the clickable chip set attached to one answer.
type FollowupSet struct {
	ID         string
	ExchangeID string
	Items      []string
}

// Options configures a Controller.
type Options struct {
	Sender exchange.Sender

	// SessionID is used as-is when set. Otherwise Identity is asked once.
	SessionID string
	Identity  IdentityProvider

	// Suggestions is the static list of example questions.
	Suggestions []string

	Logger *slog.Logger
}

// Controller sequences exchanges one at a time and publishes render events.
// All methods are safe for concurrent use.
type Controller struct {
	sender      exchange.Sender
	sessionID   string
	suggestions []string
	broadcaster *EventBroadcaster
	logger      *slog.Logger

	// ctx is the parent of every request; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      State
	transcript []Exchange
	pendingID  string
	followups  []FollowupSet
	idle       chan struct{} // closed whenever state is Idle
	closed     bool
}

// New creates a Controller. The session identifier is resolved here, once,
// and reused for every exchange.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Sender == nil {
		return nil, ErrNoSender
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		if opts.Identity == nil {
			return nil, ErrNoSession
		}
		sessionID = opts.Identity.GetOrCreate(ctx)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idle := make(chan struct{})
	close(idle)

	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	return &Controller{
		sender:      opts.Sender,
		sessionID:   sessionID,
		suggestions: append([]string(nil), opts.Suggestions...),
		broadcaster: NewEventBroadcaster(logger),
		logger:      logger.With("component", "conversation"),
		ctx:         reqCtx,
		cancel:      cancel,
		state:       Idle,
		idle:        idle,
	}, nil
}

// Submit starts an exchange for question. It returns false, and changes
// nothing, when the trimmed question is empty, an exchange is already
// pending, or the controller is closed. The outcome arrives later as an event.
func (c *Controller) Submit(question string) bool {
	question = strings.TrimSpace(question)
	if question == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if c.state == AwaitingResponse {
		c.logger.Debug("submit ignored while awaiting response", "pending_id", c.pendingID)
		return false
	}

	now := time.Now()
	ex := Exchange{
		ID:       uuid.New().String(),
		Question: question,
		AskedAt:  now,
	}
	c.transcript = append(c.transcript, ex)
	c.state = AwaitingResponse
	c.pendingID = ex.ID
	c.idle = make(chan struct{})

	c.broadcaster.Publish(Event{
		Type:       EventUserMessageAppended,
		ExchangeID: ex.ID,
		Text:       question,
		Timestamp:  now,
	})
	c.broadcaster.Publish(Event{
		Type:       EventPendingStarted,
		ExchangeID: ex.ID,
		Text:       PlaceholderText,
		Timestamp:  now,
	})

	c.logger.Debug("exchange started", "exchange_id", ex.ID)

	c.wg.Add(1)
	go c.run(ex.ID, question)

	return true
}

// SubmitSuggestion submits the static suggestion at index.
func (c *Controller) SubmitSuggestion(index int) bool {
	if index < 0 || index >= len(c.suggestions) {
		return false
	}
	return c.Submit(c.suggestions[index])
}

// ClickFollowup submits item index of the follow-up set setID. The set is
// discarded once clicked, even if the submit itself is rejected. Unknown
// sets and out-of-range indexes are ignored.
func (c *Controller) ClickFollowup(setID string, index int) bool {
	c.mu.Lock()
	pos := -1
	for i, set := range c.followups {
		if set.ID == setID {
			pos = i
			break
		}
	}
	if pos < 0 || index < 0 || index >= len(c.followups[pos].Items) {
		c.mu.Unlock()
		return false
	}
	question := c.followups[pos].Items[index]
	c.followups = append(c.followups[:pos], c.followups[pos+1:]...)
	c.mu.Unlock()

	return c.Submit(question)
}

func (c *Controller) run(id, question string) {
	defer c.wg.Done()
	out := c.sender.Send(c.ctx, question, c.sessionID)
	c.resolve(id, out)
}

// resolve moves the pending exchange id to its terminal outcome. A
// resolution for an exchange that is no longer pending is dropped.
func (c *Controller) resolve(id string, out exchange.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.pendingID != id {
		c.logger.Debug("discarding stale resolution", "exchange_id", id, "kind", out.Kind.String())
		return
	}

	now := time.Now()
	event := Event{ExchangeID: id, Timestamp: now}

	switch out.Kind {
	case exchange.Answered:
		out.Followups = capFollowups(out.Followups)
		event.Type = EventAnsweredReceived
		event.Text = out.Text
		event.Followups = append([]string(nil), out.Followups...)
		if len(out.Followups) > 0 {
			set := FollowupSet{
				ID:         uuid.New().String(),
				ExchangeID: id,
				Items:      append([]string(nil), out.Followups...),
			}
			c.followups = append(c.followups, set)
			event.FollowupSetID = set.ID
		}
	case exchange.RateLimited:
		event.Type = EventRateLimitedReceived
		event.Message = RateLimitNotice
	default:
		// A sender must never report Pending; treat it as a failure.
		if out.Kind != exchange.Failed {
			out = exchange.FailedOutcome(exchange.MessageNetwork, exchange.ErrNetwork)
		}
		if out.Message == "" {
			out.Message = exchange.MessageNetwork
		}
		event.Type = EventFailedReceived
		event.Message = out.Message
	}

	for i := len(c.transcript) - 1; i >= 0; i-- {
		if c.transcript[i].ID == id {
			c.transcript[i].Outcome = out
			c.transcript[i].ResolvedAt = now
			break
		}
	}

	c.state = Idle
	c.pendingID = ""
	close(c.idle)

	c.broadcaster.Publish(event)

	c.logger.Debug("exchange resolved",
		"exchange_id", id,
		"kind", out.Kind.String(),
		"followups", len(out.Followups))
}

// capFollowups drops blank entries and keeps at most MaxFollowups.
func capFollowups(items []string) []string {
	out := make([]string, 0, min(len(items), MaxFollowups))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == MaxFollowups {
			break
		}
	}
	return out
}

// Subscribe registers for render events. See EventBroadcaster.Subscribe.
func (c *Controller) Subscribe(ctx context.Context) (<-chan Event, string) {
	return c.broadcaster.Subscribe(ctx)
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Controller) Unsubscribe(subID string) {
	c.broadcaster.Unsubscribe(subID)
}

// Wait blocks until the controller is Idle or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight request, discards its eventual outcome, and
// closes every subscriber channel. Submit is a no-op afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.state == AwaitingResponse {
		c.logger.Debug("closing with exchange in flight", "exchange_id", c.pendingID)
		c.state = Idle
		c.pendingID = ""
		close(c.idle)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.broadcaster.Close()
}

// State returns the current turn-taking state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the identifier sent with every question.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Suggestions returns a copy of the static suggestion list.
func (c *Controller) Suggestions() []string {
	return append([]string(nil), c.suggestions...)
}

// Transcript returns a copy of every exchange in submission order.
func (c *Controller) Transcript() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Exchange, len(c.transcript))
	for i, ex := range c.transcript {
		ex.Outcome.Followups = append([]string(nil), ex.Outcome.Followups...)
		out[i] = ex
	}
	return out
}

// Followups returns the follow-up sets that can still be clicked, oldest first.
func (c *Controller) Followups() []FollowupSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]FollowupSet, len(c.followups))
	for i, set := range c.followups {
		set.Items = append([]string(nil), set.Items...)
		out[i] = set
	}
	return out
}
