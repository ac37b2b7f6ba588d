package password_test

import (
	"testing"

	"github.com/Abraxas-365/keygate/pkg/iam/password"
)

func TestHashAndVerify(t *testing.T) {
	h := password.NewHasher(4) // minimum cost keeps the test fast

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !h.Verify("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if h.Verify("wrong password", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestVerifyGarbageHash(t *testing.T) {
	h := password.NewHasher(4)
	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("garbage hash must never verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := password.NewHasher(4)

	h1, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	h2, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ (salt)")
	}
}
