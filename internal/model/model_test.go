package model

import (
	"errors"
	"testing"

	"soundwave/internal/errs"
)

func TestRole_Can(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		role *Role
		bits int
		want bool
	}{
		{"nil role", nil, PermFollow, false},
		{"single bit held", &Role{Permissions: PermFollow}, PermFollow, true},
		{"single bit missing", &Role{Permissions: PermFollow}, PermPublish, false},
		{"all requested bits held", &Role{Permissions: PermFollow | PermPublish | PermComment}, PermFollow | PermComment, true},
		{"partial overlap is not enough", &Role{Permissions: PermFollow | PermPublish}, PermFollow | PermModerate, false},
		{"superset passes", &Role{Permissions: 0xff}, PermAdmin | PermModerate, true},
		{"zero request always passes", &Role{Permissions: 0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Can(tt.bits); got != tt.want {
				t.Fatalf("Can(%#x) = %v, want %v", tt.bits, got, tt.want)
			}
		})
	}
}

func TestUser_Permissions(t *testing.T) {
	t.Parallel()

	u := &User{Role: &Role{Permissions: PermFollow | PermPublish | PermComment}}
	if !u.Can(PermPublish) {
		t.Fatalf("user should publish")
	}
	if u.Can(PermModerate) {
		t.Fatalf("user must not moderate")
	}
	if u.IsAdministrator() {
		t.Fatalf("user is not an administrator")
	}

	admin := &User{Role: &Role{Permissions: 0xff}}
	if !admin.IsAdministrator() {
		t.Fatalf("admin role must report administrator")
	}

	var nilRole *User = &User{}
	if nilRole.Can(PermFollow) {
		t.Fatalf("user without loaded role must not be authorized")
	}
}

func TestAnonymousUser_AlwaysDenied(t *testing.T) {
	t.Parallel()

	var p Principal = AnonymousUser{}
	for _, bits := range []int{PermFollow, PermPublish, PermComment, PermModerate, PermAdmin, 0x01 | 0x80} {
		if p.Can(bits) {
			t.Fatalf("anonymous must not hold %#x", bits)
		}
	}
	if p.IsAdministrator() {
		t.Fatalf("anonymous must not be administrator")
	}
}

func TestUser_PasswordWriteOnly(t *testing.T) {
	t.Parallel()

	u := &User{}
	if err := u.SetPassword("cat"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if _, err := u.Password(); !errors.Is(err, errs.ErrWriteOnly) {
		t.Fatalf("want ErrWriteOnly reading the password, got %v", err)
	}
	if !u.VerifyPassword("cat") {
		t.Fatalf("correct password rejected")
	}
	if u.VerifyPassword("dog") {
		t.Fatalf("wrong password accepted")
	}

	before := append([]byte(nil), u.PasswordHash...)
	if err := u.SetPassword("cat"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if string(before) == string(u.PasswordHash) {
		t.Fatalf("re-hashing must use a fresh salt")
	}
}

func TestSong_Searchable(t *testing.T) {
	t.Parallel()

	s := &Song{ID: 5, Name: "midnight train"}
	var e Searchable = s
	if e.TableName() != "songs" {
		t.Fatalf("table name = %q", e.TableName())
	}
	if e.PrimaryKey() != 5 {
		t.Fatalf("primary key = %d", e.PrimaryKey())
	}
	fields := e.SearchableFields()
	if fields["name"] != "midnight train" {
		t.Fatalf("searchable fields = %v", fields)
	}
}
