// Package service contains application services for identity, songs and comments.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"soundwave/internal/errs"
	"soundwave/internal/limiter"
	"soundwave/internal/mailer"
	"soundwave/internal/model"
	"soundwave/internal/repository"
	"soundwave/internal/token"
)

// AuthService defines registration, authentication and token-driven account flows.
type AuthService interface {
	// Register creates a confirmed=false account with the resolved role and
	// self-follow edge, then emails a confirmation token.
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	// LoginWithIP applies rate limiting by (username, ip) and verifies the password.
	LoginWithIP(ctx context.Context, username, password, ip string) (*model.User, error)
	// IssueAPIToken mints an api-auth token for the user.
	IssueAPIToken(u *model.User) (string, time.Time, error)
	// AuthenticateToken resolves the acting user from an api-auth token.
	AuthenticateToken(ctx context.Context, tok string) (*model.User, error)
	// Confirm validates a confirmation token scoped to u and marks it confirmed.
	Confirm(ctx context.Context, u *model.User, tok string) error
	// ResendConfirmation emails a fresh confirmation token.
	ResendConfirmation(u *model.User)
	// RequestPasswordReset emails a reset token if the address is known.
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword validates a reset token and replaces the credential.
	ResetPassword(ctx context.Context, tok, newPassword string) error
	// RequestEmailChange verifies the password and emails a change token to the new address.
	RequestEmailChange(ctx context.Context, u *model.User, newEmail, password string) error
	// ChangeEmail validates a change-email token scoped to u and applies the new address.
	ChangeEmail(ctx context.Context, u *model.User, tok string) error
	// ChangePassword replaces the credential after checking the old password.
	ChangePassword(ctx context.Context, u *model.User, oldPassword, newPassword string) error
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokens     *token.Service
	mail       *mailer.Dispatcher
	lim        limiter.Limiter
	adminEmail string
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, roles repository.RoleRepository,
	tokens *token.Service, mail *mailer.Dispatcher, lim limiter.Limiter, adminEmail string) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, roles: roles, tokens: tokens, mail: mail, lim: lim, adminEmail: adminEmail}
}

// Register creates a new account. The role is the designated administrator
// role when the email matches the configured admin address, otherwise the
// default role. The self-follow edge is created by the repository in the
// same transaction as the user row.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", errs.ErrValidation)
	}

	role, err := s.resolveRole(ctx, email)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, Email: email, RoleID: role.ID, Role: role}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.sendConfirmation(u)
	return u, nil
}

func (s *AuthServiceImpl) resolveRole(ctx context.Context, email string) (*model.Role, error) {
	if s.adminEmail != "" && email == s.adminEmail {
		return s.roles.GetByName(ctx, model.RoleNameAdministrator)
	}
	return s.roles.GetDefault(ctx)
}

func (s *AuthServiceImpl) sendConfirmation(u *model.User) {
	tok, err := s.tokens.Issue(u.ID, token.PurposeConfirm)
	if err != nil {
		return
	}
	s.mail.Go(u.Email, "Confirm your account",
		fmt.Sprintf("Hello %s,\n\nuse this token to confirm your account: %s\n", u.Username, tok))
}

// LoginWithIP authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (*model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !u.VerifyPassword(password) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		// unknown user and wrong password are indistinguishable
		return nil, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, username, ipHash)
	return u, nil
}

// IssueAPIToken mints an api-auth token and reports when it expires.
func (s *AuthServiceImpl) IssueAPIToken(u *model.User) (string, time.Time, error) {
	tok, err := s.tokens.Issue(u.ID, token.PurposeAPIAuth)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, time.Now().Add(s.tokens.TTL()), nil
}

// AuthenticateToken resolves the acting user by the token's embedded subject.
// Unlike account-scoped tokens, api-auth tokens are resolved globally.
func (s *AuthServiceImpl) AuthenticateToken(ctx context.Context, tok string) (*model.User, error) {
	claims, err := s.tokens.Validate(tok, token.PurposeAPIAuth)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// Confirm validates the token against this specific user and persists the
// confirmed flag. A token issued for another identity fails here.
func (s *AuthServiceImpl) Confirm(ctx context.Context, u *model.User, tok string) error {
	if _, err := s.tokens.ValidateFor(tok, token.PurposeConfirm, u.ID); err != nil {
		return err
	}
	if u.Confirmed {
		return nil
	}
	u.Confirmed = true
	return s.users.Update(ctx, u)
}

// ResendConfirmation emails a fresh confirmation token, fire-and-forget.
func (s *AuthServiceImpl) ResendConfirmation(u *model.User) {
	s.sendConfirmation(u)
}

// RequestPasswordReset emails a reset token. An unknown address is silently
// ignored so the endpoint does not reveal which emails have accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}
	tok, err := s.tokens.Issue(u.ID, token.PurposeReset)
	if err != nil {
		return err
	}
	s.mail.Go(u.Email, "Reset your password",
		fmt.Sprintf("Hello %s,\n\nuse this token to reset your password: %s\n", u.Username, tok))
	return nil
}

// ResetPassword validates a reset token, resolves its subject (which must
// still exist) and replaces the credential.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", errs.ErrValidation)
	}
	claims, err := s.tokens.Validate(tok, token.PurposeReset)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return errs.ErrUnauthorized
	}
	if err := u.SetPassword(newPassword); err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, u.PasswordHash, u.PasswordSalt)
}

// RequestEmailChange verifies the password and emails a change-email token
// carrying the new address to that address.
func (s *AuthServiceImpl) RequestEmailChange(ctx context.Context, u *model.User, newEmail, password string) error {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if newEmail == "" {
		return fmt.Errorf("%w: new email is required", errs.ErrValidation)
	}
	if !u.VerifyPassword(password) {
		return errs.ErrUnauthorized
	}
	tok, err := s.tokens.Issue(u.ID, token.PurposeChangeEmail, token.WithNewEmail(newEmail))
	if err != nil {
		return err
	}
	s.mail.Go(newEmail, "Confirm your new email address",
		fmt.Sprintf("Hello %s,\n\nuse this token to confirm your new address: %s\n", u.Username, tok))
	return nil
}

// ChangeEmail validates the token against this specific user and applies the
// new address it carries.
func (s *AuthServiceImpl) ChangeEmail(ctx context.Context, u *model.User, tok string) error {
	claims, err := s.tokens.ValidateFor(tok, token.PurposeChangeEmail, u.ID)
	if err != nil {
		return err
	}
	u.Email = claims.NewEmail
	return s.users.Update(ctx, u)
}

// ChangePassword replaces the credential after checking the old password.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, u *model.User, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", errs.ErrValidation)
	}
	if !u.VerifyPassword(oldPassword) {
		return errs.ErrUnauthorized
	}
	if err := u.SetPassword(newPassword); err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, u.PasswordHash, u.PasswordSalt)
}
