package pipeline

import (
	"sync"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

// State holds the current merged table. The table is only ever replaced as
// a whole; readers get their own copy of the slice header.
type State struct {
	mu          sync.RWMutex
	records     []internal.CanonicalRecord
	refreshedAt time.Time
}

func NewState() *State {
	return &State{records: []internal.CanonicalRecord{}}
}

func (s *State) Replace(records []internal.CanonicalRecord, at time.Time) {
	if records == nil {
		records = []internal.CanonicalRecord{}
	}
	s.mu.Lock()
	s.records = records
	s.refreshedAt = at
	s.mu.Unlock()
}

// Snapshot returns the table and when it was built. The zero time means the
// table has never been refreshed. Callers must not modify the records.
func (s *State) Snapshot() ([]internal.CanonicalRecord, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[:len(s.records):len(s.records)], s.refreshedAt
}
