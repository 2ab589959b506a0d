package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tpp/internal/compiler"
	"tpp/internal/pipeline"
	"tpp/internal/ui"
)

type batchOutcome struct {
	results []compiler.BatchResult
	err     error
}

// runBatchWithUI drives CompileDir behind a Bubble Tea progress display.
func runBatchWithUI(ctx context.Context, c *compiler.Compiler, dir string, opts compiler.BatchOptions) ([]compiler.BatchResult, error) {
	_, files, err := compiler.ListTemplates(dir)
	if err != nil {
		return nil, err
	}

	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = pipeline.ChannelSink{Ch: events}
		res, err := c.CompileDir(ctx, dir, optsCopy)
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("compiling templates", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
