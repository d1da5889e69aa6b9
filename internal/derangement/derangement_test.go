package derangement

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

// identityShuffler leaves the order untouched.
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("p%02d", i)
	}
	return out
}

func assertSingleCycleDerangement(t *testing.T, in []string, pairs map[string]string) {
	t.Helper()
	if len(pairs) != len(in) {
		t.Fatalf("mapping has %d entries, want %d", len(pairs), len(in))
	}
	recipients := make(map[string]bool, len(in))
	for _, giver := range in {
		r, ok := pairs[giver]
		if !ok {
			t.Fatalf("giver %q missing from mapping", giver)
		}
		if r == giver {
			t.Fatalf("fixed point: %q gifts to themselves", giver)
		}
		if recipients[r] {
			t.Fatalf("recipient %q assigned twice", r)
		}
		if !slices.Contains(in, r) {
			t.Fatalf("recipient %q not in input", r)
		}
		recipients[r] = true
	}
	// Following the mapping from any start visits everyone once.
	cur, steps := in[0], 0
	for {
		cur = pairs[cur]
		steps++
		if cur == in[0] {
			break
		}
		if steps > len(in) {
			t.Fatalf("walk did not return to start")
		}
	}
	if steps != len(in) {
		t.Fatalf("cycle length %d, want %d", steps, len(in))
	}
}

func TestGenerate_BijectionWithoutFixedPoints(t *testing.T) {
	rng := NewSeededShuffler(42)
	for n := 2; n <= 40; n++ {
		in := ids(n)
		for trial := 0; trial < 25; trial++ {
			pairs, err := Generate(in, rng)
			if err != nil {
				t.Fatalf("n=%d: %v", n, err)
			}
			assertSingleCycleDerangement(t, in, pairs)
		}
	}
}

func TestGenerate_SecureShuffler(t *testing.T) {
	rng, err := NewSecureShuffler()
	if err != nil {
		t.Fatalf("NewSecureShuffler: %v", err)
	}
	in := []string{"A", "B", "C", "D", "E"}
	pairs, err := Generate(in, rng)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertSingleCycleDerangement(t, in, pairs)
}

func TestGenerate_Insufficient(t *testing.T) {
	for _, in := range [][]string{nil, {}, {"solo"}} {
		if _, err := Generate(in, identityShuffler{}); !errors.Is(err, ErrInsufficientParticipants) {
			t.Fatalf("Generate(%v) err=%v, want ErrInsufficientParticipants", in, err)
		}
	}
}

func TestGenerate_DuplicateIdentity(t *testing.T) {
	if _, err := Generate([]string{"A", "B", "A"}, identityShuffler{}); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestGenerate_TwoParticipantsSwap(t *testing.T) {
	pairs, err := Generate([]string{"A", "B"}, NewSeededShuffler(7))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pairs["A"] != "B" || pairs["B"] != "A" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
}

func TestGenerate_PairsNeighboursAfterShuffle(t *testing.T) {
	pairs, err := Generate([]string{"A", "B", "C"}, identityShuffler{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := map[string]string{"A": "B", "B": "C", "C": "A"}
	for k, v := range want {
		if pairs[k] != v {
			t.Fatalf("pairs[%s]=%s, want %s", k, pairs[k], v)
		}
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	in := []string{"A", "B", "C", "D"}
	orig := slices.Clone(in)
	if _, err := Generate(in, NewSeededShuffler(1)); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !slices.Equal(in, orig) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestGenerate_BothThreeCyclesOccur(t *testing.T) {
	rng := NewSeededShuffler(99)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		pairs, err := Generate([]string{"A", "B", "C"}, rng)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[pairs["A"]] = true
	}
	if !seen["B"] || !seen["C"] {
		t.Fatalf("expected both A→B and A→C cycles over 200 draws, saw %v", seen)
	}
}
