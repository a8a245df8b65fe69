package pipeline

import (
	"strings"

	"github.com/charmbracelet/log"
)

type lineCapture struct {
	lines *[]string
}

func (c lineCapture) Write(p []byte) (int, error) {
	for _, l := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		*c.lines = append(*c.lines, l)
	}
	return len(p), nil
}

func newCaptureLogger(lines *[]string) *log.Logger {
	return log.NewWithOptions(lineCapture{lines: lines}, log.Options{Level: log.DebugLevel})
}
