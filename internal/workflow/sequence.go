package workflow

import "sync"

// sequencer hands out monotonic tickets per key and accepts a result only
// if no later ticket for the same key has already been applied.
type sequencer struct {
	mu      sync.Mutex
	next    map[string]uint64
	applied map[string]uint64
}

func newSequencer() *sequencer {
	return &sequencer{
		next:    make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

func (s *sequencer) ticket(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[key]++
	return s.next[key]
}

// apply runs fn under the sequencer lock when ticket is newer than the last
// applied one for key. It reports whether fn ran.
func (s *sequencer) apply(key string, ticket uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied[key] {
		return false
	}
	s.applied[key] = ticket
	fn()
	return true
}
