package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/config"
)

// Seed makes sure the permission catalog, the built-in roles and the
// bootstrap admin exist. Every step is idempotent so it runs on each start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	return ensureAdmin(ctx, pool, roleIDs[auth.RoleHRAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, code := range auth.AllPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (code) VALUES ($1) ON CONFLICT (code) DO NOTHING", code)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}

		err = pool.QueryRow(ctx, "INSERT INTO roles (name, is_system) VALUES ($1, true) RETURNING id", roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permIDs := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, code FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, code string
		if err := rows.Scan(&id, &code); err != nil {
			return err
		}
		permIDs[code] = id
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for roleName, codes := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, code := range codes {
			permID, ok := permIDs[code]
			if !ok {
				return errors.New("permission not seeded: " + code)
			}
			_, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, hrAdminRoleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE lower(email) = lower($1)", email).Scan(&id)
	if err != nil {
		hash, hashErr := auth.HashPassword(password)
		if hashErr != nil {
			return hashErr
		}
		err = pool.QueryRow(ctx, `
      INSERT INTO employees (first_name, last_name, email, password_hash, status)
      VALUES ('System', 'Admin', lower($1), $2, 'ACTIVE')
      RETURNING id
    `, email, hash).Scan(&id)
		if err != nil {
			return err
		}
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO employee_roles (employee_id, role_id)
    VALUES ($1, $2)
    ON CONFLICT (employee_id, role_id) DO NOTHING
  `, id, hrAdminRoleID)
	return err
}
