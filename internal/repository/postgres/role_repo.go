package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

// RoleRepo implements RoleRepository using PostgreSQL.
type RoleRepo struct{ db *DB }

// NewRoleRepo constructs a role repository.
func NewRoleRepo(db *DB) *RoleRepo { return &RoleRepo{db: db} }

// Seed upserts the built-in roles keyed by name. Reapplying updates the
// bitmask and default flag in place rather than duplicating rows.
func (r *RoleRepo) Seed(ctx context.Context) error {
	seed := []model.Role{
		{Name: model.RoleNameUser, Permissions: model.PermFollow | model.PermPublish | model.PermComment, Default: true},
		{Name: model.RoleNameModerator, Permissions: model.PermFollow | model.PermPublish | model.PermComment | model.PermModerate},
		{Name: model.RoleNameAdministrator, Permissions: 0xff},
	}
	const q = `
INSERT INTO roles (name, permissions, is_default) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET permissions=EXCLUDED.permissions, is_default=EXCLUDED.is_default`
	for _, role := range seed {
		if _, err := r.db.Pool.Exec(ctx, q, role.Name, role.Permissions, role.Default); err != nil {
			return err
		}
	}
	return nil
}

func scanRole(row pgx.Row) (*model.Role, error) {
	var role model.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Permissions, &role.Default); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// GetByID selects a role by ID.
func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	const q = `SELECT role_id, name, permissions, is_default FROM roles WHERE role_id=$1`
	return scanRole(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByName selects a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	const q = `SELECT role_id, name, permissions, is_default FROM roles WHERE name=$1`
	return scanRole(r.db.Pool.QueryRow(ctx, q, name))
}

// GetDefault selects the role marked default.
func (r *RoleRepo) GetDefault(ctx context.Context) (*model.Role, error) {
	const q = `SELECT role_id, name, permissions, is_default FROM roles WHERE is_default=true`
	return scanRole(r.db.Pool.QueryRow(ctx, q))
}

// List selects all roles.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	const q = `SELECT role_id, name, permissions, is_default FROM roles ORDER BY role_id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions, &role.Default); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
