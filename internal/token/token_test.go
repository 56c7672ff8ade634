package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"soundwave/internal/errs"
)

func TestIssueValidate_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Minute)

	for _, p := range []Purpose{PurposeConfirm, PurposeReset, PurposeAPIAuth} {
		tok, err := s.Issue(42, p)
		if err != nil {
			t.Fatalf("Issue(%s): %v", p, err)
		}
		claims, err := s.Validate(tok, p)
		if err != nil {
			t.Fatalf("Validate(%s): %v", p, err)
		}
		if claims.UserID != 42 || claims.Purpose != p {
			t.Fatalf("bad claims: %+v", claims)
		}
	}
}

func TestValidate_WrongPurpose(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Minute)

	tok, err := s.Issue(7, PurposeConfirm)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Validate(tok, PurposeReset); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for purpose mismatch, got %v", err)
	}
}

func TestValidate_Expiry(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Hour)

	tok, err := s.Issue(7, PurposeReset, WithTTL(2*time.Second))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Validate(tok, PurposeReset); err != nil {
		t.Fatalf("fresh token should validate: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(3 * time.Second) }
	if _, err := s.Validate(tok, PurposeReset); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized after expiry, got %v", err)
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Minute)

	tok, err := s.Issue(7, PurposeConfirm)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip a character in the signature segment.
	i := strings.LastIndexByte(tok, '.') + 1
	b := []byte(tok)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	if _, err := s.Validate(string(b), PurposeConfirm); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on tampered signature, got %v", err)
	}

	other := New([]byte("different"), time.Minute)
	if _, err := other.Validate(tok, PurposeConfirm); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized under different key, got %v", err)
	}
}

func TestValidate_ChangeEmailRequiresNewEmail(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Minute)

	bare, err := s.Issue(7, PurposeChangeEmail)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Validate(bare, PurposeChangeEmail); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized without new_email, got %v", err)
	}

	tok, err := s.Issue(7, PurposeChangeEmail, WithNewEmail("new@example.com"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := s.Validate(tok, PurposeChangeEmail)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.NewEmail != "new@example.com" {
		t.Fatalf("new email lost: %+v", claims)
	}
}

func TestValidateFor_PinsSubject(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"), time.Minute)

	tok, err := s.Issue(7, PurposeConfirm)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.ValidateFor(tok, PurposeConfirm, 7); err != nil {
		t.Fatalf("ValidateFor own user: %v", err)
	}
	if _, err := s.ValidateFor(tok, PurposeConfirm, 8); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for another user's token, got %v", err)
	}
}

func TestNew_TTLFallback(t *testing.T) {
	t.Parallel()
	s := New([]byte("k"), 0)
	if s.TTL() != DefaultTTL {
		t.Fatalf("want DefaultTTL fallback, got %v", s.TTL())
	}
	if got := New([]byte("k"), 90*time.Second).TTL(); got != 90*time.Second {
		t.Fatalf("want configured ttl, got %v", got)
	}
}
