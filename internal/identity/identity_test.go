package identity

import (
	"testing"
	"time"
)

func TestVerifyTokenRoundTrip(t *testing.T) {
	v, err := NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	want := Owner{ID: "owner-1", DisplayName: "Demo User", Email: "demo@example.com", EmailVerified: true}
	token, err := v.MintToken(want, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	got, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("owner = %+v, want %+v", got, want)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	v, _ := NewVerifier("test-secret")
	token, err := v.MintToken(Owner{ID: "owner-1"}, -2*time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := v.VerifyToken(token); err == nil {
		t.Fatalf("expired token should be rejected")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewVerifier("secret-a")
	verifier, _ := NewVerifier("secret-b")
	token, _ := issuer.MintToken(Owner{ID: "owner-1"}, time.Minute)
	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier("  "); err == nil {
		t.Fatalf("blank secret should be rejected")
	}
}
