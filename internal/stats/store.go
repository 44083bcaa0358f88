// Package stats keeps the success and failure counters of the captcha
// server and persists them to the stat file after every verification.
package stats

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/thruflo/captcha/internal/numeric"
)

// maxDigits is the widest decimal rendering of a uint32.
const maxDigits = 10

// Counts is a snapshot of the counters.
type Counts struct {
	Success uint32
	Failed  uint32
}

// Total returns the number of completed verifications.
func (c Counts) Total() uint64 {
	return uint64(c.Success) + uint64(c.Failed)
}

// Report renders the counters the way they are sent to clients.
func (c Counts) Report() string {
	return fmt.Sprintf("Success: %d\nFailed: %d\n", c.Success, c.Failed)
}

// CorruptError is returned by Load when a stat file line is not a valid
// counter. The server must not start with unknown counters.
type CorruptError struct {
	Path string
	Line int
	Text string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupted stat file %s: line %d: %q is not a counter", e.Path, e.Line, e.Text)
}

// IsCorrupt checks if an error is a CorruptError.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// Store holds the counters and writes them through to the stat file.
type Store struct {
	path string

	mu     sync.Mutex
	counts Counts
}

// NewStore creates a Store with zero counters. Nothing is read or written.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the stat file at path. A missing file means no history yet
// and yields zero counters.
func Load(path string) (*Store, error) {
	s := NewStore(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read stat file: %w", err)
	}

	counts, err := parse(path, string(data))
	if err != nil {
		return nil, err
	}
	s.counts = counts
	return s, nil
}

// parse expects the success count on the first line and the failure count
// on the second. Anything after the second line is ignored.
func parse(path, data string) (Counts, error) {
	lines := strings.SplitN(data, "\n", 3)

	var values [2]uint32
	for i := range values {
		if i >= len(lines) {
			return Counts{}, &CorruptError{Path: path, Line: i + 1}
		}
		text := strings.TrimSuffix(lines[i], "\r")
		if len(text) > maxDigits || !numeric.Valid(text) {
			return Counts{}, &CorruptError{Path: path, Line: i + 1, Text: text}
		}
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return Counts{}, &CorruptError{Path: path, Line: i + 1, Text: text}
		}
		values[i] = uint32(n)
	}

	return Counts{Success: values[0], Failed: values[1]}, nil
}

// Path returns the stat file path.
func (s *Store) Path() string {
	return s.path
}

// Counts returns a snapshot of the counters.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Report renders the current counters for a client.
func (s *Store) Report() string {
	return s.Counts().Report()
}

// RecordSuccess increments the success counter and commits the stat file.
// The counter stays incremented even if the commit fails, and stops at
// math.MaxUint32 rather than wrapping.
func (s *Store) RecordSuccess() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.Success = saturatingInc(s.counts.Success)
	return s.commit()
}

// RecordFailure increments the failure counter and commits the stat file.
// The counter stays incremented even if the commit fails, and stops at
// math.MaxUint32 rather than wrapping.
func (s *Store) RecordFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.Failed = saturatingInc(s.counts.Failed)
	return s.commit()
}

func saturatingInc(n uint32) uint32 {
	if n == math.MaxUint32 {
		return n
	}
	return n + 1
}

// Reset zeroes both counters and commits the stat file.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = Counts{}
	return s.commit()
}

// Save commits the current counters to the stat file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit()
}

// commit rewrites the whole stat file. Callers hold s.mu.
func (s *Store) commit() error {
	data := fmt.Sprintf("%d\n%d", s.counts.Success, s.counts.Failed)
	if err := os.WriteFile(s.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write stat file: %w", err)
	}
	return nil
}
