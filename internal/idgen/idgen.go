// Package idgen provides the single id-generation capability used by every
// mutation site that needs fresh node, port, edge or definition ids.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator yields ids that are unique within a session.
type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID() string { return uuid.NewString() }

// Sequence generates deterministic ids of the form prefix+counter. It is
// intended for tests and reproducible exports.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence returns a Sequence starting at 1.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s%d", s.prefix, s.next)
	s.next++
	return id
}

// Short returns the first n characters of a fresh id, or the whole id when
// it is shorter.
func Short(g Generator, n int) string {
	id := g.NewID()
	if len(id) <= n {
		return id
	}
	return id[:n]
}
