// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"soundwave/internal/model"
)

// UserRepository provides access to users, roles assignment and the follow graph.
type UserRepository interface {
	// Create inserts a new user together with its mandatory self-follow edge.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user (with role) by ID.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername loads a user (with role) by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail loads a user (with role) by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists profile fields, confirmed flag, email and role.
	Update(ctx context.Context, u *model.User) error
	// UpdatePassword replaces the stored credential.
	UpdatePassword(ctx context.Context, id int64, hash, salt []byte) error
	// Ping refreshes the last-seen timestamp.
	Ping(ctx context.Context, id int64, seen time.Time) error
	// Delete removes a user; songs, comments, likes and follow edges cascade.
	Delete(ctx context.Context, id int64) error
	// List returns a page of users and the total count.
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)

	// Follow creates the follower->followed edge; no-op if it already exists.
	Follow(ctx context.Context, followerID, followedID int64) error
	// Unfollow removes the edge; no-op if it does not exist.
	Unfollow(ctx context.Context, followerID, followedID int64) error
	// IsFollowing reports edge existence via the composite primary key.
	IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error)
	// Followers returns a page of users following userID.
	Followers(ctx context.Context, userID int64, limit, offset int) ([]model.User, int64, error)
	// Followed returns a page of users userID follows.
	Followed(ctx context.Context, userID int64, limit, offset int) ([]model.User, int64, error)
}

// RoleRepository provides role lookup and idempotent seeding.
type RoleRepository interface {
	// Seed upserts the built-in roles keyed by name. Safe to reapply.
	Seed(ctx context.Context) error
	// GetByID loads a role by ID.
	GetByID(ctx context.Context, id int64) (*model.Role, error)
	// GetByName loads a role by its unique name.
	GetByName(ctx context.Context, name string) (*model.Role, error)
	// GetDefault loads the role marked default.
	GetDefault(ctx context.Context) (*model.Role, error)
	// List returns all roles.
	List(ctx context.Context) ([]model.Role, error)
}
