package service

import (
	"context"
	"fmt"
	"time"

	"soundwave/internal/errs"
	"soundwave/internal/model"
	"soundwave/internal/repository"
)

// ProfileUpdate carries the self-editable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	Name     *string
	Location *string
	AboutMe  *string
}

// AdminProfileUpdate carries the fields an administrator may edit on any account.
type AdminProfileUpdate struct {
	ProfileUpdate
	Username  *string
	Email     *string
	Confirmed *bool
	RoleID    *int64
}

// UserService defines profile and follow-graph operations.
type UserService interface {
	// Get loads a user by username.
	Get(ctx context.Context, username string) (*model.User, error)
	// List returns a page of users and the total count.
	List(ctx context.Context, page, perPage int) ([]model.User, int64, error)
	// UpdateProfile applies a self-service profile edit.
	UpdateProfile(ctx context.Context, u *model.User, upd ProfileUpdate) error
	// UpdateProfileAdmin applies an administrator edit, including role changes.
	UpdateProfileAdmin(ctx context.Context, target *model.User, upd AdminProfileUpdate) error
	// Delete removes an account; owned content cascades.
	Delete(ctx context.Context, id int64) error
	// Ping refreshes the last-seen timestamp.
	Ping(ctx context.Context, u *model.User)
	// Follow makes follower follow the named user. Idempotent.
	Follow(ctx context.Context, follower *model.User, username string) error
	// Unfollow removes the edge. Idempotent.
	Unfollow(ctx context.Context, follower *model.User, username string) error
	// IsFollowing reports whether follower follows the named user.
	IsFollowing(ctx context.Context, follower *model.User, username string) (bool, error)
	// Followers returns a page of users following the named user.
	Followers(ctx context.Context, username string, page, perPage int) ([]model.User, int64, error)
	// Followed returns a page of users the named user follows.
	Followed(ctx context.Context, username string, page, perPage int) ([]model.User, int64, error)
}

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users, roles: roles}
}

// Get loads a user by username.
func (s *UserServiceImpl) Get(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// List returns a page of users.
func (s *UserServiceImpl) List(ctx context.Context, page, perPage int) ([]model.User, int64, error) {
	return s.users.List(ctx, perPage, pageOffset(page, perPage))
}

// UpdateProfile applies the provided profile fields.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, u *model.User, upd ProfileUpdate) error {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Location != nil {
		u.Location = *upd.Location
	}
	if upd.AboutMe != nil {
		u.AboutMe = *upd.AboutMe
	}
	return s.users.Update(ctx, u)
}

// UpdateProfileAdmin applies an administrator edit. A role change is resolved
// against the role table so a bogus role id is rejected as validation failure.
func (s *UserServiceImpl) UpdateProfileAdmin(ctx context.Context, target *model.User, upd AdminProfileUpdate) error {
	if upd.Username != nil {
		target.Username = *upd.Username
	}
	if upd.Email != nil {
		target.Email = *upd.Email
	}
	if upd.Confirmed != nil {
		target.Confirmed = *upd.Confirmed
	}
	if upd.RoleID != nil {
		role, err := s.roles.GetByID(ctx, *upd.RoleID)
		if err != nil {
			return fmt.Errorf("%w: unknown role", errs.ErrValidation)
		}
		target.RoleID = role.ID
		target.Role = role
	}
	if upd.Name != nil {
		target.Name = *upd.Name
	}
	if upd.Location != nil {
		target.Location = *upd.Location
	}
	if upd.AboutMe != nil {
		target.AboutMe = *upd.AboutMe
	}
	return s.users.Update(ctx, target)
}

// Delete removes an account with all owned content.
func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// Ping refreshes last-seen, best-effort.
func (s *UserServiceImpl) Ping(ctx context.Context, u *model.User) {
	_ = s.users.Ping(ctx, u.ID, time.Now())
}

// Follow creates the follow edge; following an already-followed user is a no-op.
func (s *UserServiceImpl) Follow(ctx context.Context, follower *model.User, username string) error {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.users.Follow(ctx, follower.ID, target.ID)
}

// Unfollow removes the follow edge; unfollowing a non-followed user is a no-op.
func (s *UserServiceImpl) Unfollow(ctx context.Context, follower *model.User, username string) error {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if follower.ID == target.ID {
		// the self-follow edge is structural and cannot be removed
		return nil
	}
	return s.users.Unfollow(ctx, follower.ID, target.ID)
}

// IsFollowing reports edge existence.
func (s *UserServiceImpl) IsFollowing(ctx context.Context, follower *model.User, username string) (bool, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.users.IsFollowing(ctx, follower.ID, target.ID)
}

// Followers returns a page of followers of the named user.
func (s *UserServiceImpl) Followers(ctx context.Context, username string, page, perPage int) ([]model.User, int64, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.users.Followers(ctx, u.ID, perPage, pageOffset(page, perPage))
}

// Followed returns a page of users the named user follows.
func (s *UserServiceImpl) Followed(ctx context.Context, username string, page, perPage int) ([]model.User, int64, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.users.Followed(ctx, u.ID, perPage, pageOffset(page, perPage))
}

// pageOffset converts a 1-based page number to a row offset.
func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
