package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/skillhunter-backend/pkg/config"
	"github.com/angelmondragon/skillhunter-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); !errors.Is(err, security.ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	if err := security.CheckPasswordStrength("12345"); !errors.Is(err, security.ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
	if err := security.CheckPasswordStrength("123456"); err != nil {
		t.Fatalf("six characters should pass, got %v", err)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := security.GenerateToken(24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := security.GenerateToken(24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 encoded characters, got %d", len(a))
	}
	if _, err := security.GenerateToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
