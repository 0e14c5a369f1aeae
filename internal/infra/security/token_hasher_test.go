package security

import (
	"strings"
	"testing"
)

func TestTokenHasherDeterministic(t *testing.T) {
	hasher, err := NewTokenHasher("")
	if err != nil {
		t.Fatalf("NewTokenHasher returned error: %v", err)
	}

	first := hasher.Hash("eyJhbGciOi.payload.signature")
	second := hasher.Hash("eyJhbGciOi.payload.signature")
	if first != second {
		t.Fatalf("expected identical digests, got %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
	if strings.Contains(first.String(), "payload") {
		t.Fatalf("digest must not contain token material")
	}
}

func TestTokenHasherDistinctTokens(t *testing.T) {
	hasher, _ := NewTokenHasher("")

	seen := make(map[string]string)
	for _, token := range []string{"tokenA", "tokenB", "tokenA ", "", "TOKENA"} {
		digest := hasher.Hash(token).String()
		if prev, ok := seen[digest]; ok {
			t.Fatalf("collision between %q and %q", prev, token)
		}
		seen[digest] = token
	}
}

func TestTokenHasherKeyed(t *testing.T) {
	unkeyed, _ := NewTokenHasher("")
	keyedA, err := NewTokenHasher("secret-a")
	if err != nil {
		t.Fatalf("NewTokenHasher returned error: %v", err)
	}
	keyedA2, _ := NewTokenHasher("secret-a")
	keyedB, _ := NewTokenHasher("secret-b")

	token := "tokenA"
	if keyedA.Hash(token) != keyedA2.Hash(token) {
		t.Fatalf("same secret must produce the same digest across instances")
	}
	if keyedA.Hash(token) == keyedB.Hash(token) {
		t.Fatalf("different secrets must produce different digests")
	}
	if keyedA.Hash(token) == unkeyed.Hash(token) {
		t.Fatalf("keyed and unkeyed digests must differ")
	}
}
