package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s. Type 'exit' to quit.\n", sessionID)

			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "\nYou: ")
				if !in.Scan() {
					return in.Err()
				}
				text := strings.TrimSpace(in.Text())
				switch strings.ToLower(text) {
				case "":
					continue
				case "exit", "quit", "salir":
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}

				reply, err := a.orchestrator.HandleMessage(ctx, sessionID, text)
				if err != nil {
					fmt.Fprintf(out, "Habibi: (error) %v\n", err)
					continue
				}
				fmt.Fprintf(out, "Habibi: %s\n", reply)
			}
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session id")
	return cmd
}
