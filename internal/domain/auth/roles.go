package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	// ErrSystemRole guards the seeded roles against deletion.
	ErrSystemRole = errors.New("system roles cannot be deleted")
)

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	IsSystem    bool     `json:"isSystem"`
	Permissions []string `json:"permissions"`
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.is_system, COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
    FROM roles r
    LEFT JOIN role_permissions rp ON rp.role_id = r.id
    LEFT JOIN permissions p ON p.id = rp.permission_id
    GROUP BY r.id, r.name, r.is_system
    ORDER BY r.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.IsSystem, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) RoleByID(ctx context.Context, roleID string) (*Role, error) {
	var role Role
	err := s.DB.QueryRow(ctx, `
    SELECT r.id, r.name, r.is_system, COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
    FROM roles r
    LEFT JOIN role_permissions rp ON rp.role_id = r.id
    LEFT JOIN permissions p ON p.id = rp.permission_id
    WHERE r.id = $1
    GROUP BY r.id, r.name, r.is_system
  `, roleID).Scan(&role.ID, &role.Name, &role.IsSystem, &role.Permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a custom role and grants the listed permission codes.
// Unknown codes are rejected before anything is written.
func (s *Store) CreateRole(ctx context.Context, name string, permissionCodes []string) (*Role, error) {
	known := NewPermissionSet(AllPermissions...)
	for _, code := range permissionCodes {
		if !known.Has(code) {
			return nil, fmt.Errorf("unknown permission code %q", code)
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var roleID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO roles (name, is_system) VALUES ($1, false) RETURNING id
  `, name).Scan(&roleID); err != nil {
		return nil, err
	}
	for _, code := range permissionCodes {
		if _, err := tx.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      SELECT $1, id FROM permissions WHERE code = $2
    `, roleID, code); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.RoleByID(ctx, roleID)
}

// UpdateRolePermissions replaces the grant list of a role atomically.
func (s *Store) UpdateRolePermissions(ctx context.Context, roleID string, permissionCodes []string) (*Role, error) {
	known := NewPermissionSet(AllPermissions...)
	for _, code := range permissionCodes {
		if !known.Has(code) {
			return nil, fmt.Errorf("unknown permission code %q", code)
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE roles SET name = name WHERE id = $1", roleID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRoleNotFound
	}
	if _, err := tx.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID); err != nil {
		return nil, err
	}
	for _, code := range permissionCodes {
		if _, err := tx.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      SELECT $1, id FROM permissions WHERE code = $2
    `, roleID, code); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.RoleByID(ctx, roleID)
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	var isSystem bool
	err := s.DB.QueryRow(ctx, "SELECT is_system FROM roles WHERE id = $1", roleID).Scan(&isSystem)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if isSystem {
		return ErrSystemRole
	}
	_, err = s.DB.Exec(ctx, "DELETE FROM roles WHERE id = $1", roleID)
	return err
}

func (s *Store) AssignRole(ctx context.Context, employeeID, roleID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employee_roles (employee_id, role_id)
    SELECT $1, id FROM roles WHERE id = $2
    ON CONFLICT (employee_id, role_id) DO NOTHING
  `, employeeID, roleID)
	return err
}

func (s *Store) UnassignRole(ctx context.Context, employeeID, roleID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM employee_roles WHERE employee_id = $1 AND role_id = $2
  `, employeeID, roleID)
	return err
}
