package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"roomservice/internal/apperr"
	"roomservice/internal/evaluation"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newChatCmd(a *app) *cobra.Command {
	var (
		room      int
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer service.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), service, sessionID, room)
		},
	}
	cmd.Flags().IntVar(&room, "room", 0, "Room number to attach to every utterance")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (generated when empty)")
	return cmd
}

// chatLoop reads one utterance per line until EOF or "quit"
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, runner evaluation.Runner, sessionID string, room int) error {
	fmt.Fprintln(out, stateStyle.Render("Type your request, or \"quit\" to leave."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("guest> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		res, err := runner.ProcessTurn(ctx, sessionID, line, room)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("error (%s): %v", apperr.Kind(err), err)))
			continue
		}

		fmt.Fprintf(out, "%s %s\n", stateStyle.Render("["+string(res.State)+"]"), replyStyle.Render(res.Reply))
		if res.Order != nil {
			fmt.Fprintln(out, stateStyle.Render("order "+res.Order.OrderID+" placed, total $"+res.Order.Total.StringFixed(2)))
		}
		if res.Ended {
			fmt.Fprintln(out, stateStyle.Render("conversation ended; the next request starts a new one"))
		}
	}
}
