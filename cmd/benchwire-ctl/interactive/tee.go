package interactive

import (
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/log"
)

// EventTee is a log sink whose destination file can be attached and
// replaced while sessions are live. Sessions capture the tee once at
// open, so a later Attach redirects their events without reopening
// anything. Events arriving with no file attached are dropped.
type EventTee struct {
	mu   sync.Mutex
	path string
	file *log.FileLogger
}

var _ log.Logger = (*EventTee)(nil)

// NewEventTee returns a tee with no destination.
func NewEventTee() *EventTee {
	return &EventTee{}
}

// Log forwards the event to the attached file, if any.
func (t *EventTee) Log(ev log.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		t.file.Log(ev)
	}
}

// Attach opens path for appending and makes it the destination,
// closing any previous file.
func (t *EventTee) Attach(path string) error {
	f, err := log.NewFileLogger(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	old := t.file
	t.file = f
	t.path = path
	t.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Detach closes the destination; subsequent events are dropped.
func (t *EventTee) Detach() error {
	t.mu.Lock()
	old := t.file
	t.file = nil
	t.path = ""
	t.mu.Unlock()
	if old == nil {
		return nil
	}
	return old.Close()
}

// Path returns the attached file path, empty when detached.
func (t *EventTee) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}
