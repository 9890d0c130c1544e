// control/journal.go
// Author: momentics <momentics@gmail.com>
//
// Bounded journal of runtime error reports. Keeps the most recent
// events for post-mortem inspection without unbounded growth; old
// entries fall off the front.

package control

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-ipc/api"
)

// JournalEvent is one recorded runtime error report.
type JournalEvent struct {
	Kind     api.RuntimeErrorKind
	Severity api.Severity
	Detail   string
	At       time.Time
}

// Journal records the most recent maxEvents runtime events.
type Journal struct {
	mu        sync.Mutex
	events    *queue.Queue
	maxEvents int
}

// NewJournal creates a journal bounded to maxEvents entries.
func NewJournal(maxEvents int) *Journal {
	if maxEvents < 1 {
		maxEvents = 1
	}
	return &Journal{
		events:    queue.New(),
		maxEvents: maxEvents,
	}
}

// Record appends an event, evicting the oldest beyond the bound.
func (j *Journal) Record(ev JournalEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events.Add(ev)
	for j.events.Length() > j.maxEvents {
		j.events.Remove()
	}
}

// Recent returns the recorded events, oldest first.
func (j *Journal) Recent() []JournalEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JournalEvent, 0, j.events.Length())
	for i := 0; i < j.events.Length(); i++ {
		out = append(out, j.events.Get(i).(JournalEvent))
	}
	return out
}

// Len returns the number of recorded events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.events.Length()
}

// CaptureRuntimeErrors chains the journal in front of the installed
// error handler: every report is recorded, then forwarded. The returned
// restore func detaches the journal.
func (j *Journal) CaptureRuntimeErrors() (restore func()) {
	var prev api.ErrorHandler
	prev = api.SetErrorHandler(func(kind api.RuntimeErrorKind, severity api.Severity, detail string) {
		j.Record(JournalEvent{Kind: kind, Severity: severity, Detail: detail, At: time.Now()})
		prev(kind, severity, detail)
	})
	return func() { api.SetErrorHandler(prev) }
}
