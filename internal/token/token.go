// Package token issues and validates purpose-typed, HMAC-signed credentials.
//
// Tokens are never persisted: validity is purely a function of signature,
// expiry and purpose match at verification time. Account-scoped purposes
// (confirm, reset, change-email) are additionally checked against a specific
// user id by the caller; api-auth tokens resolve the subject globally.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"soundwave/internal/errs"
)

// Purpose restricts which operation a token may authorize.
type Purpose string

// Token purposes, each with a distinct claim shape.
const (
	PurposeConfirm     Purpose = "confirm"
	PurposeReset       Purpose = "reset"
	PurposeChangeEmail Purpose = "change-email"
	PurposeAPIAuth     Purpose = "api-auth"
)

// DefaultTTL is the expiry applied when the caller does not override it.
const DefaultTTL = 3600 * time.Second

// Claims is the validated content of a token.
type Claims struct {
	UserID   int64
	Purpose  Purpose
	NewEmail string // set only for change-email tokens
}

type signedClaims struct {
	Purpose  string `json:"purpose"`
	NewEmail string `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a process-wide secret key. The key
// is read-only after construction, so the service is safe for concurrent use.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option customizes a single issued token.
type Option func(*signedClaims, *time.Duration)

// WithTTL overrides the default expiry for one token.
func WithTTL(ttl time.Duration) Option {
	return func(_ *signedClaims, d *time.Duration) { *d = ttl }
}

// WithNewEmail attaches the new address carried by a change-email token.
func WithNewEmail(email string) Option {
	return func(c *signedClaims, _ *time.Duration) { c.NewEmail = email }
}

// New constructs a token service. A non-positive ttl falls back to DefaultTTL.
func New(key []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{key: key, ttl: ttl, now: time.Now}
}

// TTL reports the effective expiry applied to tokens issued without WithTTL.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue mints a signed token for the subject user and purpose.
func (s *Service) Issue(userID int64, purpose Purpose, opts ...Option) (string, error) {
	ttl := s.ttl
	claims := signedClaims{Purpose: string(purpose)}
	for _, opt := range opts {
		opt(&claims, &ttl)
	}
	now := s.now()
	claims.Subject = strconv.FormatInt(userID, 10)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature and expiry and checks the purpose discriminator.
// Every failure (forged signature, elapsed expiry, wrong purpose, malformed
// structure, missing payload) collapses into errs.ErrUnauthorized so callers
// cannot tell which check failed.
func (s *Service) Validate(tokenStr string, expected Purpose) (Claims, error) {
	var claims signedClaims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return Claims{}, errs.ErrUnauthorized
	}
	if claims.Purpose != string(expected) {
		return Claims{}, errs.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, errs.ErrUnauthorized
	}
	if expected == PurposeChangeEmail && claims.NewEmail == "" {
		return Claims{}, errs.ErrUnauthorized
	}
	return Claims{UserID: userID, Purpose: expected, NewEmail: claims.NewEmail}, nil
}

// ValidateFor verifies a token as Validate does and additionally pins it to
// one specific user. Account-scoped tokens are not globally valid.
func (s *Service) ValidateFor(tokenStr string, expected Purpose, userID int64) (Claims, error) {
	claims, err := s.Validate(tokenStr, expected)
	if err != nil {
		return Claims{}, err
	}
	if claims.UserID != userID {
		return Claims{}, errs.ErrUnauthorized
	}
	return claims, nil
}
