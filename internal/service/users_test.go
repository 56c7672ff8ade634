package service

import (
	"context"
	"errors"
	"testing"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

func seedUser(t *testing.T, users *fakeUsers, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", RoleID: 1}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return u
}

func TestUsers_UpdateProfile_PartialFields(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewUserService(users, newFakeRoles())
	ctx := context.Background()

	u := seedUser(t, users, "alice")
	u.Location = "berlin"
	_ = users.Update(ctx, u)

	name := "Alice"
	if err := s.UpdateProfile(ctx, u, ProfileUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	stored, _ := users.GetByID(ctx, u.ID)
	if stored.Name != "Alice" {
		t.Fatalf("name not applied: %q", stored.Name)
	}
	if stored.Location != "berlin" {
		t.Fatalf("omitted field must keep its value, got %q", stored.Location)
	}
}

func TestUsers_UpdateProfileAdmin_BogusRole(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewUserService(users, newFakeRoles())
	ctx := context.Background()

	u := seedUser(t, users, "alice")

	bogus := int64(999)
	err := s.UpdateProfileAdmin(ctx, u, AdminProfileUpdate{RoleID: &bogus})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error for unknown role, got %v", err)
	}

	adminRole := int64(3)
	confirmed := true
	if err := s.UpdateProfileAdmin(ctx, u, AdminProfileUpdate{RoleID: &adminRole, Confirmed: &confirmed}); err != nil {
		t.Fatalf("UpdateProfileAdmin: %v", err)
	}
	stored, _ := users.GetByID(ctx, u.ID)
	if stored.RoleID != adminRole || !stored.Confirmed {
		t.Fatalf("admin edit not applied: %+v", stored)
	}
}

func TestUsers_Unfollow_SelfIsNoop(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewUserService(users, newFakeRoles())
	ctx := context.Background()

	alice := seedUser(t, users, "alice")

	// The structural self-follow edge cannot be removed.
	if err := s.Unfollow(ctx, alice, "alice"); err != nil {
		t.Fatalf("self-unfollow must be a silent no-op: %v", err)
	}

	if err := s.Unfollow(ctx, alice, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown target, got %v", err)
	}
}

func TestUsers_Follow_UnknownTarget(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewUserService(users, newFakeRoles())

	alice := seedUser(t, users, "alice")
	if err := s.Follow(context.Background(), alice, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
