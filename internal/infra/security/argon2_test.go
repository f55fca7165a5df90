package security

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	hasher, err := NewHasher(Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher returned error: %v", err)
	}
	return hasher
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := testHasher(t)

	encoded, err := hasher.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := hasher.VerifyPassword("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = hasher.VerifyPassword("wrong password", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	hasher := testHasher(t)

	first, err := hasher.HashPassword("password123!")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := hasher.HashPassword("password123!")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	hasher := testHasher(t)

	for _, encoded := range []string{
		"plainhash",
		"argon2id$v=19$m=8192,t=1$short$parts",
		"bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
	} {
		if _, err := hasher.VerifyPassword("anything", encoded); err == nil {
			t.Errorf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestUnusablePassword(t *testing.T) {
	sentinel, err := UnusablePassword()
	if err != nil {
		t.Fatalf("UnusablePassword returned error: %v", err)
	}
	if !strings.HasPrefix(sentinel, "!") {
		t.Fatalf("expected sentinel to start with !, got %s", sentinel)
	}
	if HasUsablePassword(sentinel) {
		t.Fatalf("expected sentinel to be unusable")
	}

	other, err := UnusablePassword()
	if err != nil {
		t.Fatalf("UnusablePassword returned error: %v", err)
	}
	if sentinel == other {
		t.Fatalf("expected sentinels to differ between rotations")
	}

	hasher := testHasher(t)
	ok, err := hasher.VerifyPassword("anything", sentinel)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected sentinel to never verify")
	}
}

func TestHasUsablePassword(t *testing.T) {
	if HasUsablePassword("") {
		t.Fatalf("expected empty hash to be unusable")
	}
	if !HasUsablePassword("argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA") {
		t.Fatalf("expected regular hash to be usable")
	}
}
