package auth

import (
	"errors"
	"testing"
)

func TestResolveIdentityVerifiedTokenWins(t *testing.T) {
	verifier, key := newTestVerifier(t)
	tokenString := signToken(t, key, "test-key", verifier.issuer, verifier.audience)

	identity, err := ResolveIdentity(verifier, "Bearer "+tokenString, "someone-else")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "user-123" {
		t.Fatalf("user id = %q, want user-123", identity.UserID)
	}
	if identity.Source != SourceVerified {
		t.Fatalf("source = %q, want verified", identity.Source)
	}
	if !identity.Verified() {
		t.Fatal("expected Verified() to be true")
	}
}

func TestResolveIdentityInvalidTokenFallsBack(t *testing.T) {
	verifier, _ := newTestVerifier(t)

	identity, err := ResolveIdentity(verifier, "Bearer not-a-jwt", "claimed-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "claimed-user" {
		t.Fatalf("user id = %q, want claimed-user", identity.UserID)
	}
	if identity.Source != SourceClaimed {
		t.Fatalf("source = %q, want claimed", identity.Source)
	}
	if identity.Verified() {
		t.Fatal("claimed identity must not report verified")
	}
}

func TestResolveIdentityNoHeaderUsesBodyUserID(t *testing.T) {
	identity, err := ResolveIdentity(nil, "", "claimed-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "claimed-user" || identity.Source != SourceClaimed {
		t.Fatalf("got %+v, want claimed-user/claimed", identity)
	}
}

func TestResolveIdentityNeitherPath(t *testing.T) {
	_, err := ResolveIdentity(nil, "", "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
