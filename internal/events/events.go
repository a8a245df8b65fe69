// Package events carries provisioning notifications from the worker goroutine
// to whatever presentation layer is listening.
package events

import (
	"sync"
)

// Kind names a notification.
type Kind string

const (
	KindProgress Kind = "progress"
	KindError    Kind = "error"
	// KindDismiss tells the presentation layer to close its provisioning
	// surface because the sidecar is running.
	KindDismiss Kind = "dismiss"
)

// Event is a fire-and-forget message for the presentation layer.
type Event struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Progress builds a progress event.
func Progress(msg string) Event { return Event{Kind: KindProgress, Message: msg} }

// Error builds an error event.
func Error(msg string) Event { return Event{Kind: KindError, Message: msg} }

// Dismiss builds a dismiss event.
func Dismiss() Event { return Event{Kind: KindDismiss} }

// Sink receives events. Emit must not block on a slow or absent consumer.
type Sink interface {
	Emit(Event)
}

// Func adapts a function to the Sink interface.
type Func func(Event)

func (f Func) Emit(ev Event) { f(ev) }

// Queue is a single-producer, single-consumer channel with an unbounded
// buffer. Events emitted before a consumer starts reading are held and
// delivered in emission order.
type Queue struct {
	mu     sync.Mutex
	closed bool
	in     chan Event
	out    chan Event
}

// NewQueue starts the queue's buffering goroutine.
func NewQueue() *Queue {
	q := &Queue{
		in:  make(chan Event),
		out: make(chan Event),
	}
	go q.pump()
	return q
}

// Emit enqueues ev. Events emitted after Close are dropped.
func (q *Queue) Emit(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.in <- ev
}

// Events returns the consumer side. It is closed after Close once every
// buffered event has been delivered.
func (q *Queue) Events() <-chan Event {
	return q.out
}

// Close stops accepting events.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

func (q *Queue) pump() {
	var pending []Event
	in := q.in
	for in != nil || len(pending) > 0 {
		var (
			out  chan Event
			next Event
		)
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}
		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, ev)
		case out <- next:
			pending = pending[1:]
		}
	}
	close(q.out)
}

var _ Sink = (*Queue)(nil)

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the messages of recorded events with the given kind.
func (r *Recorder) OfKind(kind Kind) []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev.Message)
		}
	}
	return out
}
