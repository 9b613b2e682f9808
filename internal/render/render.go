// ABOUTME: Terminal presentation surface for the conversation controller
// ABOUTME: Paints message bubbles, suggestion chips, and follow-up chips with the accent colour

package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/edi-chat/internal/conversation"
)

const (
	userPrefix = "you › "
	botPrefix  = "edi › "
	indent     = "      "

	// eraseLine returns the cursor to column 0 and clears the line.
	eraseLine = "\r\033[2K"
)

// Renderer writes conversation events to a terminal. Safe for concurrent use.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer

	// interactive enables the transient placeholder line.
	interactive bool

	accent  *color.Color
	title   *color.Color
	muted   *color.Color
	warn    *color.Color
	failure *color.Color

	pendingShown  bool
	lastAnswer    string
	followups     []string
	followupSetID string
}

// Options configures a Renderer.
type Options struct {
	// Accent is a #rgb or #rrggbb colour used for the title and user bubbles.
	// An unparseable value falls back to cyan.
	Accent string
	// Interactive shows the "Typing…" placeholder and erases it when the
	// answer arrives. Leave false when output is not a terminal.
	Interactive bool
}

// New creates a Renderer writing to out.
func New(out io.Writer, opts Options) *Renderer {
	accent := color.New(color.FgCyan)
	title := color.New(color.FgCyan, color.Bold)
	if r, g, b, err := ParseAccent(opts.Accent); err == nil {
		accent = color.RGB(r, g, b)
		title = color.RGB(r, g, b).Add(color.Bold)
	}

	return &Renderer{
		out:         out,
		interactive: opts.Interactive,
		accent:      accent,
		title:       title,
		muted:       color.New(color.FgHiBlack),
		warn:        color.New(color.FgYellow),
		failure:     color.New(color.FgRed),
	}
}

// ParseAccent parses a #rgb or #rrggbb colour into its components.
func ParseAccent(hex string) (r, g, b int, err error) {
	s, ok := strings.CutPrefix(hex, "#")
	if !ok {
		return 0, 0, 0, fmt.Errorf("accent %q must start with #", hex)
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("accent %q must be #rgb or #rrggbb", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("accent %q: %w", hex, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}

// Header prints the widget title with an accent rule and the hint line.
func (r *Renderer) Header(title, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.title.Fprintln(r.out, title)
	r.accent.Fprintln(r.out, strings.Repeat("─", max(len([]rune(title)), 20)))
	if hint != "" {
		r.muted.Fprintln(r.out, hint)
	}
	fmt.Fprintln(r.out)
}

// Greeting prints a bot bubble that is not tied to any exchange.
func (r *Renderer) Greeting(text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bubble(botPrefix, text, nil)
}

// Suggestions prints the static suggestion chips, numbered from 1.
func (r *Renderer) Suggestions(items []string) {
	if len(items) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.muted.Fprintln(r.out, "Suggestions (/s N):")
	for i, item := range items {
		fmt.Fprintf(r.out, "  %s %s\n", r.accent.Sprintf("[s%d]", i+1), item)
	}
	fmt.Fprintln(r.out)
}

// Event paints one controller event.
func (r *Renderer) Event(evt conversation.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch evt.Type {
	case conversation.EventUserMessageAppended:
		r.bubble(userPrefix, evt.Text, r.accent)

	case conversation.EventPendingStarted:
		if r.interactive {
			r.muted.Fprint(r.out, botPrefix+evt.Text)
			r.pendingShown = true
		}

	case conversation.EventAnsweredReceived:
		r.clearPending()
		r.bubble(botPrefix, evt.Text, nil)
		r.lastAnswer = evt.Text
		r.followups = append([]string(nil), evt.Followups...)
		r.followupSetID = evt.FollowupSetID
		if len(evt.Followups) > 0 {
			for i, item := range evt.Followups {
				fmt.Fprintf(r.out, "%s%s %s\n", indent, r.accent.Sprintf("[f%d]", i+1), item)
			}
		}
		fmt.Fprintln(r.out)

	case conversation.EventRateLimitedReceived:
		r.clearPending()
		r.bubble(botPrefix, evt.Message, r.warn)
		fmt.Fprintln(r.out)

	case conversation.EventFailedReceived:
		r.clearPending()
		r.bubble(botPrefix, evt.Message, r.failure)
		fmt.Fprintln(r.out)
	}
}

// ErrEventsClosed is returned by PaintUntilResolved when the event channel
// closes before a terminal event arrives.
var ErrEventsClosed = errors.New("event stream closed")

// PaintUntilResolved paints events until a terminal one arrives and returns
// it. It stops early when ctx is done or the channel is closed.
func (r *Renderer) PaintUntilResolved(ctx context.Context, events <-chan conversation.Event) (conversation.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return conversation.Event{}, ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return conversation.Event{}, ErrEventsClosed
			}
			r.Event(evt)
			if evt.Terminal() {
				return evt, nil
			}
		}
	}
}

// LastAnswer returns the most recent answer text, unformatted.
func (r *Renderer) LastAnswer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAnswer
}

// LatestFollowups returns the chip set shown with the most recent answer.
// The set ID is empty when that answer had no follow-ups.
func (r *Renderer) LatestFollowups() (setID string, items []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.followupSetID, append([]string(nil), r.followups...)
}

// ForgetFollowups drops the remembered chip set once it has been clicked.
func (r *Renderer) ForgetFollowups() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followups = nil
	r.followupSetID = ""
}

// Notice prints a muted line outside the transcript (command feedback).
func (r *Renderer) Notice(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) clearPending() {
	if r.pendingShown {
		fmt.Fprint(r.out, eraseLine)
		r.pendingShown = false
	}
}

// bubble prints text after prefix, indenting continuation lines. c may be nil.
func (r *Renderer) bubble(prefix, text string, c *color.Color) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lead := indent
		if i == 0 {
			lead = prefix
		}
		if c != nil {
			line = c.Sprint(line)
		}
		fmt.Fprintf(r.out, "%s%s\n", r.muted.Sprint(lead), line)
	}
}
