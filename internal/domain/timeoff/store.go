package timeoff

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const typeColumns = `
	id, name, COALESCE(description, ''), COALESCE(color, ''),
	default_allocation, max_carry_over,
	attachment_requirement, attachment_required_after_days,
	requires_approval, is_unlimited, active`

func (s *Store) TypeByID(ctx context.Context, id string) (*Type, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+typeColumns+` FROM time_off_types WHERE id = $1`, id)
	return scanType(row)
}

func (s *Store) ListTypes(ctx context.Context, includeInactive bool) ([]Type, error) {
	query := `SELECT ` + typeColumns + ` FROM time_off_types`
	if !includeInactive {
		query += ` WHERE active`
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Type
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) CreateType(ctx context.Context, t Type) (*Type, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO time_off_types
		   (name, description, color, default_allocation, max_carry_over,
		    attachment_requirement, attachment_required_after_days,
		    requires_approval, is_unlimited, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		 RETURNING id`,
		t.Name, t.Description, t.Color, t.DefaultAllocation, t.MaxCarryOver,
		t.AttachmentRequirement, t.AttachmentRequiredAfterDays,
		t.RequiresApproval, t.Unlimited).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.TypeByID(ctx, id)
}

func (s *Store) UpdateType(ctx context.Context, t Type) (*Type, error) {
	_, err := s.DB.Exec(ctx,
		`UPDATE time_off_types
		 SET name = $2, description = $3, color = $4, default_allocation = $5,
		     max_carry_over = $6, attachment_requirement = $7,
		     attachment_required_after_days = $8, requires_approval = $9,
		     is_unlimited = $10, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Color, t.DefaultAllocation, t.MaxCarryOver,
		t.AttachmentRequirement, t.AttachmentRequiredAfterDays,
		t.RequiresApproval, t.Unlimited)
	if err != nil {
		return nil, err
	}
	return s.TypeByID(ctx, t.ID)
}

func (s *Store) DeactivateType(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE time_off_types SET active = false, updated_at = now() WHERE id = $1`, id)
	return err
}

const balanceColumns = `
	b.id, b.employee_id, b.type_id, t.name, b.year,
	b.allocated, b.carry_over, b.used, b.pending`

func (s *Store) BalanceFor(ctx context.Context, employeeID, typeID string, year int) (*Balance, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+balanceColumns+`
		 FROM time_off_balances b JOIN time_off_types t ON t.id = b.type_id
		 WHERE b.employee_id = $1 AND b.type_id = $2 AND b.year = $3`,
		employeeID, typeID, year)
	return scanBalance(row)
}

func (s *Store) ListBalances(ctx context.Context, employeeID string, year int) ([]Balance, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+balanceColumns+`
		 FROM time_off_balances b JOIN time_off_types t ON t.id = b.type_id
		 WHERE b.employee_id = $1 AND b.year = $2
		 ORDER BY t.name`, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) EnsureBalance(ctx context.Context, employeeID, typeID string, year int, allocated float64) (*Balance, error) {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO time_off_balances (employee_id, type_id, year, allocated, carry_over, used, pending)
		 VALUES ($1, $2, $3, $4, 0, 0, 0)
		 ON CONFLICT (employee_id, type_id, year) DO NOTHING`,
		employeeID, typeID, year, allocated)
	if err != nil {
		return nil, err
	}
	return s.BalanceFor(ctx, employeeID, typeID, year)
}

func (s *Store) AdjustBalance(ctx context.Context, balanceID string, allocated, carryOver float64) (*Balance, error) {
	row := s.DB.QueryRow(ctx,
		`UPDATE time_off_balances
		 SET allocated = $2, carry_over = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING employee_id, type_id, year`, balanceID, allocated, carryOver)
	var employeeID, typeID string
	var year int
	if err := row.Scan(&employeeID, &typeID, &year); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.BalanceFor(ctx, employeeID, typeID, year)
}

func (s *Store) ApplyBalanceDelta(ctx context.Context, employeeID, typeID string, year int, usedDelta, pendingDelta float64) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE time_off_balances
		 SET used = used + $4, pending = pending + $5, updated_at = now()
		 WHERE employee_id = $1 AND type_id = $2 AND year = $3`,
		employeeID, typeID, year, usedDelta, pendingDelta)
	return err
}

const requestColumns = `
	r.id, r.employee_id, e.first_name || ' ' || e.last_name,
	r.type_id, t.name, r.start_date, r.end_date,
	COALESCE(r.half_day, ''), r.business_days, COALESCE(r.reason, ''), r.status,
	COALESCE(r.attachment_id::text, ''), COALESCE(a.file_name, ''),
	COALESCE(r.reviewer_id::text, ''),
	COALESCE(rv.first_name || ' ' || rv.last_name, ''),
	COALESCE(r.review_note, ''), r.reviewed_at, r.created_at`

const requestFrom = `
	FROM time_off_requests r
	JOIN employees e ON e.id = r.employee_id
	JOIN time_off_types t ON t.id = r.type_id
	LEFT JOIN time_off_attachments a ON a.id = r.attachment_id
	LEFT JOIN employees rv ON rv.id = r.reviewer_id`

func (s *Store) RequestByID(ctx context.Context, id string) (*Request, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+requestColumns+requestFrom+` WHERE r.id = $1`, id)
	return scanRequest(row)
}

func (s *Store) CreateRequest(ctx context.Context, r Request) (*Request, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO time_off_requests
		   (employee_id, type_id, start_date, end_date, half_day, business_days, reason, status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		 RETURNING id`,
		r.EmployeeID, r.TypeID, r.StartDate, r.EndDate, r.HalfDay,
		r.BusinessDays, r.Reason, StatusPending).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.RequestByID(ctx, id)
}

func (s *Store) SetRequestStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE time_off_requests SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func (s *Store) MarkRequestReviewed(ctx context.Context, id, reviewerID, status, note string, at time.Time) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE time_off_requests
		 SET status = $2, reviewer_id = $3, review_note = $4, reviewed_at = $5, updated_at = now()
		 WHERE id = $1`,
		id, status, reviewerID, note, at)
	return err
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+requestFrom+`
		 WHERE r.employee_id = $1 ORDER BY r.start_date DESC`, employeeID)
}

func (s *Store) ListActiveRequestsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]Request, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+requestFrom+`
		 WHERE r.employee_id = $1
		   AND r.status IN ($2, $3)
		   AND r.start_date <= $4 AND r.end_date >= $5
		 ORDER BY r.start_date`,
		employeeID, StatusPending, StatusApproved, end, start)
}

func (s *Store) ListTeamRequests(ctx context.Context, managerID string) ([]Request, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+requestFrom+`
		 WHERE e.reports_to = $1 AND r.status = $2
		 ORDER BY r.start_date`, managerID, StatusPending)
}

func (s *Store) ListAllRequests(ctx context.Context, status string, limit, offset int) (ListResult, error) {
	filter := ""
	countArgs := []any{}
	args := []any{limit, offset}
	if status != "" {
		filter = ` WHERE r.status = $3`
		countArgs = append(countArgs, status)
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT count(*) FROM time_off_requests r`
	if status != "" {
		countQuery += ` WHERE r.status = $1`
	}
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	items, err := s.queryRequests(ctx,
		`SELECT `+requestColumns+requestFrom+filter+`
		 ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Store) ListApprovedInRange(ctx context.Context, start, end time.Time) ([]Request, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+requestFrom+`
		 WHERE r.status = $1 AND r.start_date <= $2 AND r.end_date >= $3
		 ORDER BY r.start_date`, StatusApproved, end, start)
}

func (s *Store) CreateAttachment(ctx context.Context, a Attachment, path string) (*Attachment, error) {
	err := s.DB.QueryRow(ctx,
		`INSERT INTO time_off_attachments (request_id, file_name, content_type, size, storage_path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, uploaded_at`,
		a.RequestID, a.FileName, a.ContentType, a.Size, path).Scan(&a.ID, &a.UploadedAt)
	if err != nil {
		return nil, err
	}
	if _, err := s.DB.Exec(ctx,
		`UPDATE time_off_requests SET attachment_id = $2, updated_at = now() WHERE id = $1`,
		a.RequestID, a.ID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) AttachmentByID(ctx context.Context, id string) (*Attachment, string, error) {
	var a Attachment
	var path string
	err := s.DB.QueryRow(ctx,
		`SELECT id, request_id, file_name, content_type, size, storage_path, uploaded_at
		 FROM time_off_attachments WHERE id = $1`, id).
		Scan(&a.ID, &a.RequestID, &a.FileName, &a.ContentType, &a.Size, &path, &a.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &a, path, nil
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE time_off_requests SET attachment_id = NULL, updated_at = now() WHERE attachment_id = $1`,
		id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM time_off_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) IsManagerOf(ctx context.Context, managerID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND reports_to = $2)`,
		employeeID, managerID).Scan(&exists)
	return exists, err
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanType(row pgx.Row) (*Type, error) {
	var t Type
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Color,
		&t.DefaultAllocation, &t.MaxCarryOver,
		&t.AttachmentRequirement, &t.AttachmentRequiredAfterDays,
		&t.RequiresApproval, &t.Unlimited, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanBalance(row pgx.Row) (*Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.EmployeeID, &b.TypeID, &b.TypeName, &b.Year,
		&b.Allocated, &b.CarryOver, &b.Used, &b.Pending)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName,
		&r.TypeID, &r.TypeName, &r.StartDate, &r.EndDate,
		&r.HalfDay, &r.BusinessDays, &r.Reason, &r.Status,
		&r.AttachmentID, &r.AttachmentName,
		&r.ReviewerID, &r.ReviewerName,
		&r.ReviewNote, &r.ReviewedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
