package testutil

import "sync"

// SampleStatFile is a stat file as written by the server: 12 successes, 3 failures.
const SampleStatFile = "12\n3"

// CorruptStatFile has a non-numeric second line.
const CorruptStatFile = "12\nthree"

// FixedSource is a deterministic challenge source. It cycles through its
// values forever and is safe for concurrent use.
type FixedSource struct {
	mu     sync.Mutex
	values []uint8
	next   int
}

// NewFixedSource returns a source yielding values in order, then repeating.
func NewFixedSource(values ...uint8) *FixedSource {
	if len(values) == 0 {
		values = []uint8{0}
	}
	return &FixedSource{values: values}
}

// Uint8 returns the next value.
func (s *FixedSource) Uint8() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Drawn returns how many values have been handed out.
func (s *FixedSource) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
