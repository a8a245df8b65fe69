package tui

import "appenv/internal/events"

// EventMsg carries one provisioning event into the program.
type EventMsg struct {
	Event events.Event
}

// WorkDoneMsg signals that the event stream has ended.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error raised outside the event stream.
type ErrorMsg struct {
	Err error
}
