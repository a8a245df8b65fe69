package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"appenv/internal/events"
)

// ErrInterrupted is returned when the user quits before provisioning ends.
var ErrInterrupted = errors.New("interrupted")

// StepsModel renders provisioning progress as a growing list of steps. The
// newest step carries a spinner until the next one arrives.
type StepsModel struct {
	title    string
	steps    []string
	spinner  spinner.Model
	stayOpen bool

	failure     string
	err         error
	dismissed   bool
	done        bool
	interrupted bool
}

// NewStepsModel creates a model with the given title. With stayOpen set, a
// failure keeps the program running until the user quits so the message can
// be read.
func NewStepsModel(title string, stayOpen bool) StepsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return StepsModel{
		title:    title,
		spinner:  sp,
		stayOpen: stayOpen,
	}
}

// Init satisfies the tea.Model interface.
func (m StepsModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update satisfies the tea.Model interface.
func (m StepsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		return m.applyEvent(msg.Event)

	case WorkDoneMsg:
		m.done = true
		return m, m.quitUnlessHeld()

	case ErrorMsg:
		m.err = msg.Err
		if m.failure == "" && msg.Err != nil {
			m.failure = msg.Err.Error()
		}
		m.done = true
		return m, m.quitUnlessHeld()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.interrupted = true
			}
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m StepsModel) applyEvent(ev events.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case events.KindProgress:
		m.steps = append(m.steps, ev.Message)
	case events.KindError:
		m.failure = ev.Message
		m.done = true
		return m, m.quitUnlessHeld()
	case events.KindDismiss:
		m.dismissed = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m StepsModel) quitUnlessHeld() tea.Cmd {
	if m.failure != "" && m.stayOpen {
		return nil
	}
	return tea.Quit
}

// View satisfies the tea.Model interface.
func (m StepsModel) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, step := range m.steps {
		last := i == len(m.steps)-1
		switch {
		case last && m.failure != "":
			b.WriteString(errorStyle.Render("✗ " + step))
		case last && !m.done:
			b.WriteString(m.spinner.View() + " " + activeStyle.Render(step))
		default:
			b.WriteString(doneStyle.Render("✓") + " " + step)
		}
		b.WriteByte('\n')
	}

	if m.failure != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.failure))
		b.WriteByte('\n')
		if m.stayOpen {
			b.WriteString(hintStyle.Render("press q to exit"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Done returns whether the model has finished.
func (m StepsModel) Done() bool {
	return m.done
}

// Dismissed reports whether provisioning completed and asked the surface to
// close.
func (m StepsModel) Dismissed() bool {
	return m.dismissed
}

// Err returns the failure shown to the user, if any.
func (m StepsModel) Err() error {
	switch {
	case m.err != nil:
		return m.err
	case m.failure != "":
		return errors.New(m.failure)
	case m.interrupted:
		return ErrInterrupted
	default:
		return nil
	}
}
