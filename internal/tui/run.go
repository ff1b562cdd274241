package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until the program exits. workFn receives the program's Send
// function; its returned error ends the program with an ErrorMsg.
//
// When the program exits first (ctrl+c), the context handed to workFn is
// cancelled and RunWithWork waits for workFn to return.
func RunWithWork(ctx context.Context, out io.Writer, model ProgressModel, workFn func(ctx context.Context, send func(tea.Msg)) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := workFn(ctx, p.Send); err != nil {
			p.Send(ErrorMsg{Err: err})
			return
		}
		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return err
	}
	if m, ok := finalModel.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
