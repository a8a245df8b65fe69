package sidecar

import (
	"github.com/charmbracelet/log"
)

// Sink receives relayed sidecar output.
type Sink interface {
	Line(Line)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Line)

func (f SinkFunc) Line(l Line) { f(l) }

// LogSink writes stdout lines at info level and stderr lines at warn level.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Line(l Line) {
	if l.Stream == Stderr {
		s.Logger.Warn(l.Text, "stream", l.Stream.String())
		return
	}
	s.Logger.Info(l.Text, "stream", l.Stream.String())
}
