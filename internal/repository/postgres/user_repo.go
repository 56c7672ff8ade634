package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `
u.user_id, u.username, u.email, u.password_hash, u.password_salt, u.confirmed,
u.name, u.location, u.about_me, u.member_since, u.last_seen, u.role_id,
r.name, r.permissions, r.is_default`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role model.Role
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PasswordSalt, &u.Confirmed,
		&u.Name, &u.Location, &u.AboutMe, &u.MemberSince, &u.LastSeen, &u.RoleID,
		&role.Name, &role.Permissions, &role.Default)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	role.ID = u.RoleID
	u.Role = &role
	return &u, nil
}

// Create inserts a new user row and its self-follow edge in one transaction.
// A fresh identity always follows itself so the followed-songs query includes
// the user's own songs without special-casing.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx, _ *Changes) error {
		const ins = `
INSERT INTO users (username, email, password_hash, password_salt, confirmed, name, location, about_me, role_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING user_id, member_since, last_seen`
		err := tx.QueryRow(ctx, ins, u.Username, u.Email, u.PasswordHash, u.PasswordSalt,
			u.Confirmed, u.Name, u.Location, u.AboutMe, u.RoleID).
			Scan(&u.ID, &u.MemberSince, &u.LastSeen)
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
		const selfFollow = `
INSERT INTO follows (follower_id, followed_id) VALUES ($1, $1)
ON CONFLICT (follower_id, followed_id) DO NOTHING`
		_, err = tx.Exec(ctx, selfFollow, u.ID)
		return err
	})
}

// GetByID selects a user with its role by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users u JOIN roles r ON r.role_id = u.role_id
WHERE u.user_id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByUsername selects a user with its role by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users u JOIN roles r ON r.role_id = u.role_id
WHERE u.username=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

// GetByEmail selects a user with its role by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users u JOIN roles r ON r.role_id = u.role_id
WHERE u.email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// Update persists profile fields, the confirmed flag, email and role.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users
SET username=$2, email=$3, confirmed=$4, name=$5, location=$6, about_me=$7, role_id=$8
WHERE user_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.Confirmed,
		u.Name, u.Location, u.AboutMe, u.RoleID)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored credential hash and salt.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash, salt []byte) error {
	const q = `UPDATE users SET password_hash=$2, password_salt=$3 WHERE user_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash, salt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Ping refreshes the last-seen timestamp.
func (r *UserRepo) Ping(ctx context.Context, id int64, seen time.Time) error {
	const q = `UPDATE users SET last_seen=$2 WHERE user_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, seen)
	return err
}

// Delete removes a user. Songs, comments, likes and follow edges are removed
// by foreign-key cascade; the user's songs are recorded as deleted so the
// search index drops their documents after commit.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return r.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx, ch *Changes) error {
		const owned = `SELECT song_id, name FROM songs WHERE author_id=$1`
		rows, err := tx.Query(ctx, owned, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s model.Song
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				return err
			}
			s.AuthorID = id
			ch.Deleted(&s)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		const del = `DELETE FROM users WHERE user_id=$1`
		tag, err := tx.Exec(ctx, del, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

// List returns a page of users ordered by registration date.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	const q = `
SELECT ` + userColumns + `, count(*) OVER ()
FROM users u JOIN roles r ON r.role_id = u.role_id
ORDER BY u.member_since ASC, u.user_id ASC
LIMIT $1 OFFSET $2`
	return r.queryUsersPage(ctx, q, limit, offset)
}

// Follow creates the follower->followed edge. Already-existing edges are a no-op.
func (r *UserRepo) Follow(ctx context.Context, followerID, followedID int64) error {
	const q = `
INSERT INTO follows (follower_id, followed_id) VALUES ($1, $2)
ON CONFLICT (follower_id, followed_id) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, followerID, followedID)
	return err
}

// Unfollow removes exactly the one matching edge. Missing edges are a no-op.
func (r *UserRepo) Unfollow(ctx context.Context, followerID, followedID int64) error {
	const q = `DELETE FROM follows WHERE follower_id=$1 AND followed_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, followerID, followedID)
	return err
}

// IsFollowing checks edge existence via the composite primary key.
func (r *UserRepo) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id=$1 AND followed_id=$2)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, followerID, followedID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Followers returns a page of users following userID.
func (r *UserRepo) Followers(ctx context.Context, userID int64, limit, offset int) ([]model.User, int64, error) {
	const q = `
SELECT ` + userColumns + `, count(*) OVER ()
FROM follows f
JOIN users u ON u.user_id = f.follower_id
JOIN roles r ON r.role_id = u.role_id
WHERE f.followed_id=$1
ORDER BY f.created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryUsersPage(ctx, q, userID, limit, offset)
}

// Followed returns a page of users userID follows.
func (r *UserRepo) Followed(ctx context.Context, userID int64, limit, offset int) ([]model.User, int64, error) {
	const q = `
SELECT ` + userColumns + `, count(*) OVER ()
FROM follows f
JOIN users u ON u.user_id = f.followed_id
JOIN roles r ON r.role_id = u.role_id
WHERE f.follower_id=$1
ORDER BY f.created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryUsersPage(ctx, q, userID, limit, offset)
}

func (r *UserRepo) queryUsersPage(ctx context.Context, q string, args ...any) ([]model.User, int64, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	var total int64
	for rows.Next() {
		var u model.User
		var role model.Role
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PasswordSalt, &u.Confirmed,
			&u.Name, &u.Location, &u.AboutMe, &u.MemberSince, &u.LastSeen, &u.RoleID,
			&role.Name, &role.Permissions, &role.Default, &total); err != nil {
			return nil, 0, err
		}
		role.ID = u.RoleID
		u.Role = &role
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
