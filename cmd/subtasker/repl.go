package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sd155/subtasker/internal/chat"
	"github.com/sd155/subtasker/internal/tui"
)

var replCmd = &cobra.Command{
	Use:   "repl [prompt]",
	Short: "Decompose tasks in plain line mode",
	Long: `Run the decomposer and checker without the full-screen UI.

With a prompt argument, runs a single turn and exits. Without one, reads
prompts from standard input, one per line, until EOF or Ctrl+C.

Examples:
  subtasker repl "bake sourdough bread"
  echo "plan a garden" | subtasker repl`,
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printer := &transcript{session: rt.session, out: out}

	if len(args) > 0 {
		return printer.turn(ctx, strings.Join(args, " "))
	}

	lines := scanLines(cmd.InOrStdin())
	for {
		fmt.Fprint(out, color.CyanString("> "))
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := printer.turn(ctx, line); err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintln(out)
					return nil
				}
				return err
			}
		}
	}
}

// scanLines reads r on its own goroutine so a blocked read never holds up
// shutdown.
func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// transcript prints the log entries a turn adds.
type transcript struct {
	session *chat.Session
	out     io.Writer
	printed int
}

// turn submits prompt and prints the agent replies once the turn is done.
func (t *transcript) turn(ctx context.Context, prompt string) error {
	if err := t.session.SubmitPrompt(prompt); err != nil {
		return err
	}

	updates := t.session.Updates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-updates:
			if !ok {
				t.flush()
				return chat.ErrSessionClosed
			}
			switch ev.Type {
			case chat.EventTurnStarted:
				printStatus(t.out, "…", "thinking", color.FgHiBlack)
			case chat.EventTurnState:
				if ev.State == chat.StateAwaitingValidation {
					printStatus(t.out, "…", "checking decomposition", color.FgHiBlack)
				}
			case chat.EventTurnDone:
				t.flush()
				return nil
			case chat.EventFatal:
				t.flush()
				return fmt.Errorf("session stopped: %w", ev.Error)
			}
		}
	}
}

func (t *transcript) flush() {
	messages := t.session.Messages()
	for _, m := range messages[min(t.printed, len(messages)):] {
		if text := plainEntry(m); text != "" {
			fmt.Fprintln(t.out, text)
		}
	}
	t.printed = len(messages)
}

// plainEntry renders an agent entry for line mode. User prompts and the
// typing placeholder are not echoed.
func plainEntry(m chat.Message) string {
	return chat.MatchMessage(m, chat.MessageHandlers[string]{
		User:   func(chat.UserMessage) string { return "" },
		Typing: func(chat.Typing) string { return "" },
		Question: func(q chat.AgentQuestion) string {
			return color.MagentaString("? ") + q.Question
		},
		Handoff: func(chat.AgentHandoff) string { return "" },
		Result: func(r chat.AgentResult) string {
			header := color.GreenString("✓ %s", r.Description)
			if !tui.Valid(r) {
				header = color.YellowString("⚠ %s", r.Description)
			}
			return header + "\n" + strings.TrimRight(tui.SubtaskOutline(r.Subtasks), "\n")
		},
		Error: func(chat.AgentError) string {
			return color.RedString("✗ %s", tui.ErrorText)
		},
	})
}
