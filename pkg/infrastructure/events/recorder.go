package events

import (
	"context"
	"sync"
)

// Recorder is an in-process publisher that keeps published events in
// memory. Used in local runs and tests where no broker is configured.
type Recorder struct {
	mutex  sync.RWMutex
	events []Event
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish appends the event to the in-memory log
func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the published events matching the given type
func (r *Recorder) OfType(eventType string) []Event {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var matched []Event
	for _, event := range r.events {
		if event.Type() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
