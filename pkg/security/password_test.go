package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/sajidhasan/fieldorder/pkg/config"
)

// Small parameters keep the tests fast; production values come from config.
var testCfg = config.PasswordConfig{
	ArgonMemoryKB:    16,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", testCfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("s3cret", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("s3cret", testCfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("s3cret", testCfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("", testCfg); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestMalformedHashRejected(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=16,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
	} {
		if _, err := VerifyPassword("pw", encoded); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}
