// ABOUTME: Interactive chat loop for edi-chat
// ABOUTME: Reads questions and slash commands from stdin and paints controller events

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/2389/edi-chat/internal/render"
	"github.com/2389/edi-chat/internal/widget"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatCmd(cmd, opts)
		},
	}
}

func runChatCmd(cmd *cobra.Command, opts *rootOptions) error {
	w, err := opts.openWidget(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	return runChat(cmd.Context(), in, out, w, isTerminal(in) && isTerminal(out))
}

// isTerminal reports whether v is a terminal file.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runChat is the read-eval-paint loop. Each accepted question is painted
// through to its terminal event before the next prompt.
func runChat(ctx context.Context, in io.Reader, out io.Writer, w *widget.Widget, interactive bool) error {
	cfg := w.Config()
	ctrl := w.Controller()

	r := render.New(out, render.Options{
		Accent:      cfg.Widget.Accent,
		Interactive: interactive,
	})
	r.Header(cfg.Widget.Title, cfg.Widget.Hint)
	r.Greeting(cfg.Widget.Greeting)
	r.Suggestions(ctrl.Suggestions())
	if interactive {
		r.Notice("Type a question and press Enter. /help for commands. Ctrl+C to quit.")
		fmt.Fprintln(out)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, subID := ctrl.Subscribe(ctx)
	defer ctrl.Unsubscribe(subID)

	lines := readLines(ctx, in)

	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}

		var input string
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input = strings.TrimSpace(line.text)
			if line.err != nil {
				return fmt.Errorf("reading input: %w", line.err)
			}
		}

		if input == "" {
			continue
		}

		submitted, quit := dispatch(input, out, w, r)
		if quit {
			return nil
		}
		if !submitted {
			continue
		}

		if _, err := r.PaintUntilResolved(ctx, events); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

type inputLine struct {
	text string
	err  error
}

// readLines scans in on one goroutine for the whole session. The channel is
// closed at EOF; a read error is delivered as the last line.
func readLines(ctx context.Context, in io.Reader) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case ch <- inputLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- inputLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// dispatch handles one line of input. submitted reports whether an exchange
// was started; quit reports whether the loop should end.
func dispatch(input string, out io.Writer, w *widget.Widget, r *render.Renderer) (submitted, quit bool) {
	ctrl := w.Controller()

	if !strings.HasPrefix(input, "/") {
		if !ctrl.Submit(input) {
			r.Notice("Still waiting for the previous answer.")
			return false, false
		}
		return true, false
	}

	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit", "/q":
		return false, true

	case "/help":
		printHelp(out)

	case "/s", "/suggest":
		n, ok := chipNumber(arg, len(ctrl.Suggestions()))
		if !ok {
			r.Notice("Usage: /s N where N is 1-%d", len(ctrl.Suggestions()))
			return false, false
		}
		return ctrl.SubmitSuggestion(n - 1), false

	case "/suggestions":
		r.Suggestions(ctrl.Suggestions())

	case "/f", "/followup":
		setID, items := r.LatestFollowups()
		if setID == "" {
			r.Notice("No follow-up suggestions to pick from.")
			return false, false
		}
		n, ok := chipNumber(arg, len(items))
		if !ok {
			r.Notice("Usage: /f N where N is 1-%d", len(items))
			return false, false
		}
		r.ForgetFollowups()
		return ctrl.ClickFollowup(setID, n-1), false

	case "/copy":
		answer := r.LastAnswer()
		if answer == "" {
			r.Notice("No answer to copy yet.")
			return false, false
		}
		fmt.Fprintln(out, answer)

	case "/session":
		persisted := "persisted"
		if w.Degraded() {
			persisted = "memory only"
		}
		r.Notice("session: %s (%s)", w.SessionID(), persisted)

	default:
		r.Notice("Unknown command %s. /help lists commands.", command)
	}

	return false, false
}

// chipNumber parses a 1-based chip number in [1, n].
func chipNumber(arg string, n int) (int, bool) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v, true
}

// printHelp displays available commands.
func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  /s N           Ask suggestion N")
	fmt.Fprintln(out, "  /suggestions   List the suggestions again")
	fmt.Fprintln(out, "  /f N           Ask follow-up N from the last answer")
	fmt.Fprintln(out, "  /copy          Print the last answer without formatting")
	fmt.Fprintln(out, "  /session       Show the anonymous session id")
	fmt.Fprintln(out, "  /help          Show this help")
	fmt.Fprintln(out, "  /quit          Exit")
}
