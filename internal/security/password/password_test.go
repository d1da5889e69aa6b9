package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	cfg := FastConfig()

	enc, err := cfg.Hash("hunter22")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %q", enc)
	}

	ok, err := cfg.Verify(enc, "hunter22")
	if err != nil || !ok {
		t.Fatalf("Verify(match) = %v, %v", ok, err)
	}
	ok, err = cfg.Verify(enc, "hunter23")
	if err != nil || ok {
		t.Fatalf("Verify(mismatch) = %v, %v", ok, err)
	}
	// Exact match only: case and whitespace matter.
	for _, s := range []string{"Hunter22", "hunter22 ", " hunter22"} {
		if ok, _ := cfg.Verify(enc, s); ok {
			t.Fatalf("Verify(%q) should not match", s)
		}
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	cfg := FastConfig()
	a, _ := cfg.Hash("same-secret")
	b, _ := cfg.Hash("same-secret")
	if a == b {
		t.Fatalf("expected distinct salts, got identical hashes")
	}
}

func TestHash_LengthPolicy(t *testing.T) {
	cfg := FastConfig()
	if _, err := cfg.Hash("abc"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if _, err := cfg.Hash(strings.Repeat("x", cfg.MaxLength+1)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestVerify_MalformedHashes(t *testing.T) {
	cfg := FastConfig()
	for _, enc := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=99999999,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
	} {
		if ok, err := cfg.Verify(enc, "whatever"); ok || !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Verify(%q) = %v, %v; want false, ErrInvalidHash", enc, ok, err)
		}
	}
}
