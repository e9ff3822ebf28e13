package audit

import (
	"context"
	"sync"
)

// Recorder keeps entries in memory. It exists so tests can assert on the
// exact audit stream a job produced without a database.
type Recorder struct {
	mu       sync.Mutex
	actions  []ActionEntry
	security []SecurityEvent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

var (
	_ ActionLogger   = (*Recorder)(nil)
	_ SecurityLogger = (*Recorder)(nil)
)

func (r *Recorder) LogAction(_ context.Context, entry ActionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, entry)
}

func (r *Recorder) LogSecurityEvent(_ context.Context, event SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.security = append(r.security, event)
}

// Actions returns a copy of the recorded audit entries.
func (r *Recorder) Actions() []ActionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActionEntry, len(r.actions))
	copy(out, r.actions)
	return out
}

// ActionsByName returns the recorded entries with the given action.
func (r *Recorder) ActionsByName(action string) []ActionEntry {
	var out []ActionEntry
	for _, e := range r.Actions() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// SecurityEvents returns a copy of the recorded security events.
func (r *Recorder) SecurityEvents() []SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SecurityEvent, len(r.security))
	copy(out, r.security)
	return out
}
