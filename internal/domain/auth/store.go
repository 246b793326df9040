package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Credentials struct {
	EmployeeID   string
	Email        string
	Name         string
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

func (s *Store) FindActiveCredentialsByEmail(ctx context.Context, email string) (Credentials, error) {
	var c Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, first_name || ' ' || last_name, COALESCE(password_hash, ''), mfa_enabled, mfa_secret_enc
    FROM employees
    WHERE lower(email) = lower($1) AND status = 'ACTIVE'
  `, email).Scan(&c.EmployeeID, &c.Email, &c.Name, &c.PasswordHash, &c.MFAEnabled, &c.MFASecretEnc)
	return c, err
}

type Identity struct {
	EmployeeID string
	Email      string
	Name       string
}

func (s *Store) IdentityByID(ctx context.Context, employeeID string) (Identity, error) {
	var ident Identity
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, first_name || ' ' || last_name
    FROM employees
    WHERE id = $1 AND status = 'ACTIVE'
  `, employeeID).Scan(&ident.EmployeeID, &ident.Email, &ident.Name)
	return ident, err
}

// PermissionSetFor flattens the employee's roles into the advisory set served
// by /auth/me.
func (s *Store) PermissionSetFor(ctx context.Context, employeeID string) (PermissionSet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT p.code
    FROM permissions p
    JOIN role_permissions rp ON rp.permission_id = p.id
    JOIN employee_roles er ON er.role_id = rp.role_id
    WHERE er.employee_id = $1
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := NewPermissionSet()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		set[code] = struct{}{}
	}
	return set, rows.Err()
}

func (s *Store) RoleNamesFor(ctx context.Context, employeeID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.name
    FROM roles r
    JOIN employee_roles er ON er.role_id = r.id
    WHERE er.employee_id = $1
    ORDER BY r.name
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HasPermission backs the RequirePermission middleware; the single EXISTS
// query keeps the authoritative check on every call cheap.
func (s *Store) HasPermission(ctx context.Context, employeeID, code string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1
      FROM permissions p
      JOIN role_permissions rp ON rp.permission_id = p.id
      JOIN employee_roles er ON er.role_id = rp.role_id
      WHERE er.employee_id = $1 AND p.code = $2
    )
  `, employeeID, code).Scan(&exists)
	return exists, err
}

func (s *Store) CreateSession(ctx context.Context, sessionID, employeeID string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (id, employee_id, expires_at)
    VALUES ($1,$2,$3)
  `, sessionID, employeeID, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions SET revoked_at = now()
    WHERE id = $1 AND revoked_at IS NULL
  `, sessionID)
	return err
}

func (s *Store) SessionValid(ctx context.Context, sessionID string) (bool, error) {
	var valid bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM sessions
      WHERE id = $1 AND revoked_at IS NULL AND expires_at > now()
    )
  `, sessionID).Scan(&valid)
	return valid, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, employeeID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE employees SET last_login_at = now() WHERE id = $1", employeeID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, employeeID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE employees SET mfa_secret_enc = $2 WHERE id = $1", employeeID, secretEnc)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, employeeID string) ([]byte, error) {
	var secret []byte
	err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM employees WHERE id = $1", employeeID).Scan(&secret)
	return secret, err
}

func (s *Store) SetMFAEnabled(ctx context.Context, employeeID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE employees SET mfa_enabled = $2 WHERE id = $1", employeeID, enabled)
	return err
}
