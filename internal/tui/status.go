package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"appenv/internal/events"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StatusWriter prints a spinning status line to a writer. It runs in
// the background and updates the current text in-place. Use this for
// short waits that do not warrant the full program, such as probing the
// runtime.
type StatusWriter struct {
	w          io.Writer
	mu         sync.Mutex
	message    string
	phaseStart time.Time
	done       chan struct{}
	stopped    bool
}

// NewStatusWriter starts a background spinner that renders the current
// status message to w every 100ms.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:          w,
		phaseStart: time.Now(),
		done:       make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update changes the status message shown next to the spinner and resets
// the phase timer.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.phaseStart = time.Now()
	sw.mu.Unlock()
}

// Stop clears the status line and stops the spinner.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	sw.mu.Unlock()
	close(sw.done)
	fmt.Fprintf(sw.w, "\r\033[K")
}

func (sw *StatusWriter) loop() {
	tick := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			msg := sw.message
			start := sw.phaseStart
			sw.mu.Unlock()

			spinner := spinnerFrames[tick%len(spinnerFrames)]
			tick++
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinner, msg, formatElapsed(time.Since(start)))
		}
	}
}

// formatElapsed formats a duration for display in the status line.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// PrintEvents writes one line per event until evs closes. It is the plain
// rendering used when no terminal is attached. The returned error carries
// the message of the last error event.
func PrintEvents(w io.Writer, evs <-chan events.Event) error {
	var failure string
	for ev := range evs {
		switch ev.Kind {
		case events.KindProgress:
			fmt.Fprintf(w, "• %s\n", ev.Message)
		case events.KindError:
			failure = ev.Message
			fmt.Fprintf(w, "error: %s\n", ev.Message)
		case events.KindDismiss:
			fmt.Fprintln(w, "• ready")
		}
	}
	if failure != "" {
		return errors.New(failure)
	}
	return nil
}

// WriteJSONEvents encodes each event as one JSON object per line until evs
// closes.
func WriteJSONEvents(w io.Writer, evs <-chan events.Event) error {
	enc := json.NewEncoder(w)
	var failure string
	for ev := range evs {
		if ev.Kind == events.KindError {
			failure = ev.Message
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	if failure != "" {
		return errors.New(failure)
	}
	return nil
}
