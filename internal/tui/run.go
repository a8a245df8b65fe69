package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"appenv/internal/events"
)

// RunEvents creates a bubbletea program, forwards every event from evs to it,
// and blocks until the program exits. The program is told the work is done
// once evs closes, or fails with the context error when ctx ends first.
func RunEvents(ctx context.Context, out io.Writer, model StepsModel, evs <-chan events.Event) error {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		for {
			select {
			case <-ctx.Done():
				p.Send(ErrorMsg{Err: ctx.Err()})
				return
			case ev, ok := <-evs:
				if !ok {
					p.Send(WorkDoneMsg{})
					return
				}
				p.Send(EventMsg{Event: ev})
			}
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(StepsModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
