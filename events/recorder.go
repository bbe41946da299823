package events

import "sync"

// Recorder keeps every published event; the CLI uses it to report access
// conditions after a command ran.
type Recorder struct {
	mu  sync.Mutex
	evs []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	r.evs = append(r.evs, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.evs...)
}

func (r *Recorder) Count(typ string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Type == typ {
			n++
		}
	}
	return n
}
