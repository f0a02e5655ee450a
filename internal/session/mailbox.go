package session

import "sync"

// Mailbox is a single-slot, latest-wins handoff between the client's
// delivery goroutine and the control loop. There is deliberately no
// queue: if a second payload arrives before the loop drains the
// first, the first is dropped and the drop counted.
type Mailbox struct {
	mu      sync.Mutex
	payload []byte
	full    bool
	dropped uint64
}

// Put stores a copy of p, replacing any undrained payload.
func (m *Mailbox) Put(p []byte) {
	buf := make([]byte, len(p))
	copy(buf, p)

	m.mu.Lock()
	if m.full {
		m.dropped++
	}
	m.payload = buf
	m.full = true
	m.mu.Unlock()
}

// Take removes and returns the pending payload, if any.
func (m *Mailbox) Take() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return nil, false
	}
	p := m.payload
	m.payload = nil
	m.full = false
	return p, true
}

// Dropped returns how many payloads were overwritten before being
// drained.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
