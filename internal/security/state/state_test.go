package state

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewSigner("test-signing-key", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	raw, err := s.Sign("facebook", "user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := s.Verify(raw, "facebook")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Provider != "facebook" || claims.CorrelationKey != "user-42" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerify_ProviderMismatch(t *testing.T) {
	t.Parallel()

	s, _ := NewSigner("test-signing-key", time.Minute)
	raw, _ := s.Sign("facebook", "")

	if _, err := s.Verify(raw, "linkedin"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	t.Parallel()

	minter, _ := NewSigner("key-a", time.Minute)
	verifier, _ := NewSigner("key-b", time.Minute)
	raw, _ := minter.Sign("twitter", "")

	if _, err := verifier.Verify(raw, "twitter"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s, _ := NewSigner("test-signing-key", time.Minute)
	raw, _ := s.Sign("tiktok", "")

	// Move the verifier's clock past the ttl.
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Verify(raw, "tiktok"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()

	s, _ := NewSigner("test-signing-key", time.Minute)
	if _, err := s.Verify("not.a.token", "facebook"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestNewSigner_EmptyKey(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner("", time.Minute); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
}
