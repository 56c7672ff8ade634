// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"soundwave/internal/crypto"
	"soundwave/internal/errs"
)

// Permission bits. Independent flags combined into a role bitmask.
const (
	PermFollow   = 0x01
	PermPublish  = 0x02
	PermComment  = 0x04
	PermModerate = 0x08
	PermAdmin    = 0x80
)

// Role names seeded at startup.
const (
	RoleNameUser          = "User"
	RoleNameModerator     = "Moderator"
	RoleNameAdministrator = "Administrator"
)

// Role is a named permission bitmask. Exactly one role is marked default.
type Role struct {
	ID          int64
	Name        string // unique
	Permissions int
	Default     bool
}

// Can reports whether the role holds every requested permission bit.
// A role may hold a superset of the requested bits.
func (r *Role) Can(bits int) bool {
	return r != nil && r.Permissions&bits == bits
}

// Principal is anything that can be authorized: a real user or the anonymous one.
type Principal interface {
	Can(bits int) bool
	IsAdministrator() bool
}

// User represents an account. The plaintext password is never stored; only the
// Argon2id hash and per-user salt are persisted.
type User struct {
	ID           int64
	Username     string // unique
	Email        string // unique
	PasswordHash []byte
	PasswordSalt []byte
	Confirmed    bool
	Name         string
	Location     string
	AboutMe      string
	MemberSince  time.Time
	LastSeen     time.Time
	RoleID       int64
	Role         *Role
}

// SetPassword replaces the stored credential with a salted one-way hash.
func (u *User) SetPassword(plaintext string) error {
	hash, salt, err := crypto.HashPassword(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.PasswordSalt = salt
	return nil
}

// Password always fails: the credential is write-only.
func (u *User) Password() (string, error) {
	return "", errs.ErrWriteOnly
}

// VerifyPassword checks a candidate password against the stored hash.
func (u *User) VerifyPassword(candidate string) bool {
	return crypto.VerifyPassword(candidate, u.PasswordSalt, u.PasswordHash)
}

// Can reports whether the user's role holds every requested permission bit.
func (u *User) Can(bits int) bool {
	return u != nil && u.Role.Can(bits)
}

// IsAdministrator reports whether the user holds the ADMIN bit.
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdmin)
}

// AnonymousUser is the unauthenticated principal. Never a nil role: a distinct
// always-false variant.
type AnonymousUser struct{}

func (AnonymousUser) Can(int) bool          { return false }
func (AnonymousUser) IsAdministrator() bool { return false }

// Song is a published audio track with lyrics. The playback URL is resolved
// lazily from blob storage on first access and cached afterwards.
type Song struct {
	ID        int64
	Name      string
	URL       string // empty until resolved
	Lyrics    string
	CreatedAt time.Time
	AuthorID  int64

	// Derived counters populated on reads.
	CommentCount int64
	LikeCount    int64
}

// Comment is a user comment on a song. Disabled is the moderation soft-delete.
type Comment struct {
	ID        int64
	Body      string
	CreatedAt time.Time
	Disabled  bool
	AuthorID  int64
	SongID    int64
}

// Follow is the ordered follower->followed edge.
type Follow struct {
	FollowerID int64
	FollowedID int64
	CreatedAt  time.Time
}

// SongLike marks a single like of a song by a user.
type SongLike struct {
	SongID int64
	UserID int64
}

// Searchable is implemented by entity types that participate in full-text
// indexing. The synchronizer depends only on this interface.
type Searchable interface {
	// TableName is the index name the entity's documents live under.
	TableName() string
	// SearchableFields returns the fields projected into the index document.
	SearchableFields() map[string]string
	// PrimaryKey is the document id.
	PrimaryKey() int64
}

// TableName implements Searchable.
func (s *Song) TableName() string { return "songs" }

// SearchableFields implements Searchable. Only the name is indexed.
func (s *Song) SearchableFields() map[string]string {
	return map[string]string{"name": s.Name}
}

// PrimaryKey implements Searchable.
func (s *Song) PrimaryKey() int64 { return s.ID }
