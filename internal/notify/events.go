// Package notify carries board side effects (toasts and the publish
// celebration) from the rules engine to whatever renders them.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Kind distinguishes the visual treatment of an event.
type Kind string

const (
	KindToast       Kind = "toast"
	KindCelebration Kind = "celebration"
)

// Level mirrors the toast flavours shown by the UI.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelMagic   Level = "magic"
)

// Event is a single fire-and-forget notification.
type Event struct {
	Kind      Kind
	Level     Level
	Message   string
	ProjectID string
	At        time.Time
}

// Publisher receives events. Implementations must not block the caller for
// long; the board publishes from inside the UI update loop.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(Event)

// Publish executes f(e).
func (f PublisherFunc) Publish(e Event) {
	if f == nil {
		return
	}
	f(e)
}

// Logger records drop diagnostics. It matches logbook.Logbook's Printf.
type Logger interface {
	Printf(format string, args ...any)
}

// Celebration builds the burst event fired when a project goes live.
func Celebration(projectID string, at time.Time) Event {
	return Event{Kind: KindCelebration, Level: LevelMagic, ProjectID: projectID, At: at}
}

// Published builds the success toast that accompanies a celebration.
func Published(projectID, title string, at time.Time) Event {
	return Toast(LevelSuccess, fmt.Sprintf("%q is live! Great job!", strings.TrimSpace(title)), projectID, at)
}

// Toast builds a plain toast event.
func Toast(level Level, message, projectID string, at time.Time) Event {
	return Event{Kind: KindToast, Level: level, Message: strings.TrimSpace(message), ProjectID: projectID, At: at}
}

// Recorder keeps every published event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends e.
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of recorded events of the given kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
