// ABOUTME: Session subcommands for inspecting and resetting the anonymous id
// ABOUTME: "session" prints the id, "session clear" removes it from durable storage

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Print the anonymous session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWidget(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintln(cmd.OutOrStdout(), w.SessionID())
			if w.Degraded() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: session id is not persisted")
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the session id; the next run starts a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWidget(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.ClearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	})

	return cmd
}
