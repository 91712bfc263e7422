package testutil

import (
	"testing"

	"apikeep/internal/secret"
	"apikeep/internal/store"
)

// NewTestCipher returns a machine cipher keyed from a fixed host identity,
// so ciphertext is deterministic across test runs and machines.
func NewTestCipher(t *testing.T) *secret.MachineCipher {
	t.Helper()
	c, err := secret.NewMachineCipherFor("testhost", "testuser")
	if err != nil {
		t.Fatalf("creating test cipher: %v", err)
	}
	return c
}

// NewTestStore creates a store rooted in a fresh temp directory with a
// deterministic cipher, clock, and ID generator.
func NewTestStore(t *testing.T) (*store.Store, *StubClock) {
	t.Helper()
	clock := FixedClock()
	s, err := store.New(store.Options{
		Root:   t.TempDir(),
		Cipher: NewTestCipher(t),
		Clock:  clock,
		IDGen:  NewStubIDGenerator(),
	})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	return s, clock
}
