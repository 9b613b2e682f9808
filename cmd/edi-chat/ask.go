// ABOUTME: One-shot ask command for scripts and pipes
// ABOUTME: Sends a single question, paints the outcome, and exits non-zero on failure

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/edi-chat/internal/conversation"
	"github.com/2389/edi-chat/internal/render"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question and print the answer",
		Example: `  edi-chat ask "What are the admission requirements?"
  edi-chat ask --raw Do I need a visa to study at NUS? | less`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question is empty")
			}

			w, err := opts.openWidget(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx := cmd.Context()
			ctrl := w.Controller()
			out := cmd.OutOrStdout()

			events, subID := ctrl.Subscribe(ctx)
			defer ctrl.Unsubscribe(subID)

			if !ctrl.Submit(question) {
				return errors.New("question was not accepted")
			}

			// --raw paints into a discarded renderer and prints only the answer
			r := render.New(out, render.Options{Accent: w.Config().Widget.Accent})
			if raw {
				r = render.New(io.Discard, render.Options{})
			}

			evt, err := r.PaintUntilResolved(ctx, events)
			if err != nil {
				return err
			}

			switch evt.Type {
			case conversation.EventAnsweredReceived:
				if raw {
					fmt.Fprintln(out, evt.Text)
				}
				return nil
			default:
				return fmt.Errorf("no answer: %s", evt.Message)
			}
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print only the answer text")

	return cmd
}
