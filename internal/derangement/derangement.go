// Package derangement draws gift pairings: a mapping from giver to recipient
// in which nobody draws themselves.
//
// Generate shuffles the participants uniformly and links each one to the
// next, closing the loop at the end. The result is a single cycle through
// every participant, which is a derangement for any N >= 2. Pairings are not
// uniform over all derangements (two-person swaps inside a larger group never
// occur); only the absence of fixed points is guaranteed.
package derangement

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	mrand "math/rand/v2"
)

var (
	// ErrInsufficientParticipants is returned for fewer than two identities.
	ErrInsufficientParticipants = errors.New("at least two participants are required")

	// ErrDuplicateIdentity is returned when an identity appears twice.
	ErrDuplicateIdentity = errors.New("duplicate identity")
)

// Shuffler permutes n elements through swap. *math/rand/v2.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewSecureShuffler returns a ChaCha8 generator seeded from crypto/rand.
func NewSecureShuffler() (*mrand.Rand, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return mrand.New(mrand.NewChaCha8(seed)), nil
}

// NewSeededShuffler returns a deterministic generator, for tests.
func NewSeededShuffler(seed uint64) *mrand.Rand {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return mrand.New(mrand.NewChaCha8(s))
}

// Generate returns giver → recipient for ids. The input slice is not modified
// and nothing is persisted; calling it twice yields independent draws.
func Generate(ids []string, shuffle Shuffler) (map[string]string, error) {
	n := len(ids)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateIdentity
		}
		seen[id] = struct{}{}
	}

	order := make([]string, n)
	copy(order, ids)
	shuffle.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	pairs := make(map[string]string, n)
	for i, giver := range order {
		pairs[giver] = order[(i+1)%n]
	}
	return pairs, nil
}
