// Package store holds the single most-recent valid sensor reading.
//
// The policy is last-write-wins: Update replaces the held reading
// wholesale, with no merge and no timestamp comparison. An older
// reading arriving after a newer one overwrites it; the single
// producer assumption makes that acceptable. The mutex is required
// because the broker client delivers messages on its own goroutine.
package store

import (
	"sync"

	"github.com/comfortlab/stickmon/internal/telemetry"
)

// Store is the latest-reading store. The zero value is empty and
// ready to use.
type Store struct {
	mu      sync.RWMutex
	reading telemetry.Reading
	valid   bool
}

// Update replaces the held reading wholesale.
func (s *Store) Update(r telemetry.Reading) {
	s.mu.Lock()
	s.reading = r
	s.valid = true
	s.mu.Unlock()
}

// Current returns the held reading and whether one has ever been
// stored. When the second return is false the reading is the zero
// value, meaning "no data" rather than "bad data".
func (s *Store) Current() (telemetry.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading, s.valid
}
