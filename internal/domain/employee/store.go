package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
	e.id, e.first_name, e.last_name, e.email,
	COALESCE(e.job_title, ''), COALESCE(e.department, ''), COALESCE(e.location, ''),
	COALESCE(e.phone, ''), e.start_date,
	COALESCE(e.reports_to::text, ''),
	COALESCE(m.first_name || ' ' || m.last_name, ''),
	e.status, e.last_login_at, e.created_at`

const employeeFrom = `
	FROM employees e
	LEFT JOIN employees m ON m.id = e.reports_to`

func (s *Store) ByID(ctx context.Context, id string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+employeeFrom+` WHERE e.id = $1`, id)
	return scanEmployee(row)
}

func (s *Store) ByEmail(ctx context.Context, email string) (*Employee, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+employeeColumns+employeeFrom+` WHERE lower(e.email) = lower($1)`, email)
	return scanEmployee(row)
}

func (s *Store) Create(ctx context.Context, input CreateInput, passwordHash, status string) (*Employee, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO employees
		   (first_name, last_name, email, job_title, department, location, phone,
		    start_date, reports_to, password_hash, status)
		 VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11)
		 RETURNING id`,
		input.FirstName, input.LastName, input.Email, input.JobTitle, input.Department,
		input.Location, input.Phone, input.StartDate, input.ReportsTo, passwordHash, status).
		Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *Store) Update(ctx context.Context, id string, input UpdateInput) (*Employee, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE employees
		 SET first_name = $2, last_name = $3, job_title = $4, department = $5,
		     location = $6, phone = $7, start_date = $8,
		     reports_to = NULLIF($9, '')::uuid, status = $10, updated_at = now()
		 WHERE id = $1`,
		id, input.FirstName, input.LastName, input.JobTitle, input.Department,
		input.Location, input.Phone, input.StartDate, input.ReportsTo, input.Status)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, id)
}

func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE employees SET status = $2, updated_at = now() WHERE id = $1`, id, StatusInactive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	where := []string{"true"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Search != "" {
		add(`(e.first_name || ' ' || e.last_name || ' ' || e.email) ILIKE '%%' || $%d || '%%'`, filter.Search)
	}
	if filter.Department != "" {
		add(`e.department = $%d`, filter.Department)
	}
	if filter.Status != "" {
		add(`e.status = $%d`, filter.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		`SELECT count(*) FROM employees e WHERE `+cond, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx,
		fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY e.last_name, e.first_name LIMIT $%d OFFSET $%d`,
			employeeColumns, employeeFrom, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	items, err := collectEmployees(rows)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Store) ListReports(ctx context.Context, managerID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+employeeColumns+employeeFrom+`
		 WHERE e.reports_to = $1 AND e.status = $2
		 ORDER BY e.last_name, e.first_name`, managerID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func (s *Store) ListSections(ctx context.Context) ([]Section, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, name, position FROM profile_sections ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	index := map[string]int{}
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Position); err != nil {
			return nil, err
		}
		index[sec.ID] = len(sections)
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fieldRows, err := s.DB.Query(ctx,
		`SELECT id, section_id, label, kind, required, COALESCE(options, '{}'), editable, position
		 FROM profile_fields ORDER BY position, label`)
	if err != nil {
		return nil, err
	}
	defer fieldRows.Close()
	for fieldRows.Next() {
		var f Field
		if err := fieldRows.Scan(&f.ID, &f.SectionID, &f.Label, &f.Kind, &f.Required, &f.Options, &f.Editable, &f.Position); err != nil {
			return nil, err
		}
		if i, ok := index[f.SectionID]; ok {
			sections[i].Fields = append(sections[i].Fields, f)
		}
	}
	return sections, fieldRows.Err()
}

func (s *Store) CreateSection(ctx context.Context, name string, position int) (*Section, error) {
	var sec Section
	err := s.DB.QueryRow(ctx,
		`INSERT INTO profile_sections (name, position) VALUES ($1, $2)
		 RETURNING id, name, position`, name, position).
		Scan(&sec.ID, &sec.Name, &sec.Position)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *Store) UpdateSection(ctx context.Context, id, name string, position int) (*Section, error) {
	var sec Section
	err := s.DB.QueryRow(ctx,
		`UPDATE profile_sections SET name = $2, position = $3 WHERE id = $1
		 RETURNING id, name, position`, id, name, position).
		Scan(&sec.ID, &sec.Name, &sec.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *Store) DeleteSection(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM profile_sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateField(ctx context.Context, f Field) (*Field, error) {
	err := s.DB.QueryRow(ctx,
		`INSERT INTO profile_fields (section_id, label, kind, required, options, editable, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		f.SectionID, f.Label, f.Kind, f.Required, f.Options, f.Editable, f.Position).Scan(&f.ID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) UpdateField(ctx context.Context, f Field) (*Field, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE profile_fields
		 SET label = $2, kind = $3, required = $4, options = $5, editable = $6, position = $7
		 WHERE id = $1`,
		f.ID, f.Label, f.Kind, f.Required, f.Options, f.Editable, f.Position)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *Store) DeleteField(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM profile_fields WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FieldByID(ctx context.Context, id string) (*Field, error) {
	var f Field
	err := s.DB.QueryRow(ctx,
		`SELECT id, section_id, label, kind, required, COALESCE(options, '{}'), editable, position
		 FROM profile_fields WHERE id = $1`, id).
		Scan(&f.ID, &f.SectionID, &f.Label, &f.Kind, &f.Required, &f.Options, &f.Editable, &f.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) FieldValues(ctx context.Context, employeeID string) ([]FieldValue, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT v.field_id, f.label, f.kind, v.value
		 FROM employee_field_values v
		 JOIN profile_fields f ON f.id = v.field_id
		 WHERE v.employee_id = $1
		 ORDER BY f.position`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FieldValue
	for rows.Next() {
		var v FieldValue
		if err := rows.Scan(&v.FieldID, &v.Label, &v.Kind, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) SetFieldValue(ctx context.Context, employeeID, fieldID, value string) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO employee_field_values (employee_id, field_id, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (employee_id, field_id) DO UPDATE SET value = EXCLUDED.value`,
		employeeID, fieldID, value)
	return err
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email,
		&e.JobTitle, &e.Department, &e.Location, &e.Phone, &e.StartDate,
		&e.ReportsTo, &e.ManagerName, &e.Status, &e.LastLoginAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
