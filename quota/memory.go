package quota

import (
	"context"
	"strings"
	"sync"
)

// MemoryLedger is the in-process ledger; it lives as long as the session that owns it.
type MemoryLedger struct {
	prefix string

	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryLedger(prefix string) *MemoryLedger {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &MemoryLedger{prefix: prefix, counts: map[string]int{}}
}

func (m *MemoryLedger) Get(_ context.Context, feature string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[Key(m.prefix, feature)], nil
}

func (m *MemoryLedger) Consume(_ context.Context, feature string, ceiling int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := Key(m.prefix, feature)
	cur := m.counts[k]
	if cur >= ceiling {
		return cur, ErrExhausted
	}
	m.counts[k] = cur + 1
	return cur + 1, nil
}

func (m *MemoryLedger) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.counts {
		if strings.HasPrefix(k, m.prefix) {
			delete(m.counts, k)
		}
	}
	return nil
}
