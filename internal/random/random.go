// Package random provides the bounded draw primitive the combat engine
// consumes. Draws are sequential consumptions of a committed seed plus a
// cursor: each draw hashes seed||cursor and advances the cursor, so a
// replay with the same seed reproduces the same sequence in the same
// order.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Source yields bounded draws. Draw returns a value in [0, bound).
// Implementations must advance deterministically per call.
type Source interface {
	Draw(bound uint64) uint64
}

// SeedSource derives each draw from a committed seed with a
// keccak-256 digest over seed||cursor.
type SeedSource struct {
	mu     sync.Mutex
	seed   []byte
	cursor uint64
}

// NewSeedSource creates a source over the given seed. The seed must be
// non-empty; it is copied.
func NewSeedSource(seed []byte) (*SeedSource, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("empty draw seed")
	}
	s := make([]byte, len(seed))
	copy(s, seed)
	return &SeedSource{seed: s}, nil
}

// NewCryptoSeedSource creates a source over a freshly generated
// 32-byte seed.
func NewCryptoSeedSource() (*SeedSource, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate draw seed: %w", err)
	}
	return NewSeedSource(seed)
}

// Draw returns a value in [0, bound) and advances the cursor. A zero
// bound still consumes one cursor position and returns 0, keeping the
// draw sequence aligned across replays.
func (s *SeedSource) Draw(bound uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := sha3.NewLegacyKeccak256()
	h.Write(s.seed)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s.cursor)
	h.Write(buf[:])
	s.cursor++

	if bound == 0 {
		return 0
	}
	return binary.BigEndian.Uint64(h.Sum(nil)[:8]) % bound
}

// Cursor reports how many draws have been consumed.
func (s *SeedSource) Cursor() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
