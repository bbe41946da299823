// Package events carries access notifications (authentication lost, paywall hit)
// from the feature-call layer to whatever UI is listening.
package events

import "sync"

const (
	TypeAuth    = "auth"
	TypePaywall = "paywall"
)

type Event struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
}

type Publisher interface {
	Publish(Event)
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
	ord  []int
}

func NewBus() *Bus { return &Bus{subs: map[int]func(Event){}} }

func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.ord = append(b.ord, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; !ok {
			return
		}
		delete(b.subs, id)
		for i, v := range b.ord {
			if v == id {
				b.ord = append(b.ord[:i], b.ord[i+1:]...)
				break
			}
		}
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.ord))
	for _, id := range b.ord {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
