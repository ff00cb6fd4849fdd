package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/tui"
)

func runInteractive() error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	program, _ := tui.NewChatProgram(rt.session, tui.Options{
		Model:      rt.cfg.LLM.Model,
		InputLimit: rt.cfg.TUI.InputLimit,
		Usage:      rt.tracker,
	})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	input, output := rt.tracker.Total()
	rt.logger.Info("interactive session ended",
		zap.Int("calls", rt.tracker.Calls()),
		zap.Int64("input_tokens", input),
		zap.Int64("output_tokens", output),
		zap.Uint64("dropped_events", rt.session.DroppedEvents()))
	return nil
}
