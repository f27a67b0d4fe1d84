package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", time.Hour)
	userID := uuid.New()

	tok, err := m.GenerateToken(userID, "alice")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	identity, err := m.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("userID mismatch: got %q want %q", identity.UserID, userID)
	}
	if identity.Username != "alice" {
		t.Fatalf("username mismatch: got %q want %q", identity.Username, "alice")
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", -1*time.Second)

	tok, err := m.GenerateToken(uuid.New(), "bob")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = m.ParseToken(tok)
	if err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
	if err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewManager("right-secret", time.Hour).GenerateToken(uuid.New(), "carol")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = NewManager("wrong-secret", time.Hour).ParseToken(tok)
	if err == nil {
		t.Fatalf("expected error for invalid signature, got nil")
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewManager("k", time.Hour).ParseToken("not.a.jwt")
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
