package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/domain/timeoff"
	"bonarda/internal/platform/email"
)

const (
	KindTimeOff   = "TIME_OFF"
	KindTimesheet = "TIMESHEET"
	KindSignature = "SIGNATURE"
	KindSystem    = "SYSTEM"
)

type Notification struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Kind       string     `json:"kind"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

var ErrNotFound = errors.New("notification not found")

type Service struct {
	DB     *pgxpool.Pool
	Email  email.Sender
	Logger *slog.Logger
}

func NewService(db *pgxpool.Pool, sender email.Sender, logger *slog.Logger) *Service {
	return &Service{DB: db, Email: sender, Logger: logger}
}

// Notify records an in-app notification and best-effort emails the employee.
func (s *Service) Notify(ctx context.Context, employeeID, kind, title, body string) {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO notifications (employee_id, kind, title, body)
		 VALUES ($1, $2, $3, NULLIF($4, ''))`,
		employeeID, kind, title, body)
	if err != nil {
		s.Logger.Error("failed to store notification", "employeeId", employeeID, "error", err)
		return
	}

	var to string
	if err := s.DB.QueryRow(ctx,
		`SELECT email FROM employees WHERE id = $1`, employeeID).Scan(&to); err != nil {
		return
	}
	if err := s.Email.Send(to, title, body); err != nil {
		s.Logger.Warn("notification email failed", "to", to, "error", err)
	}
}

func (s *Service) Mine(ctx context.Context, employeeID string, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, employee_id, kind, title, COALESCE(body, ''), read_at, created_at
	          FROM notifications WHERE employee_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY created_at DESC LIMIT 100`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.Kind, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Service) MarkRead(ctx context.Context, id, employeeID string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE notifications SET read_at = now()
		 WHERE id = $1 AND employee_id = $2 AND read_at IS NULL`, id, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from already-read.
		var exists bool
		if err := s.DB.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND employee_id = $2)`,
			id, employeeID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, employeeID string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE notifications SET read_at = now()
		 WHERE employee_id = $1 AND read_at IS NULL`, employeeID)
	return err
}

// TimeOffSubmitted tells the employee's manager a request awaits review.
func (s *Service) TimeOffSubmitted(ctx context.Context, r timeoff.Request) {
	var managerID string
	err := s.DB.QueryRow(ctx,
		`SELECT reports_to FROM employees WHERE id = $1 AND reports_to IS NOT NULL`,
		r.EmployeeID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return
	}
	if err != nil {
		s.Logger.Error("failed to resolve manager", "employeeId", r.EmployeeID, "error", err)
		return
	}
	s.Notify(ctx, managerID, KindTimeOff,
		fmt.Sprintf("%s requested time off", r.EmployeeName),
		fmt.Sprintf("%s to %s (%.1f days). Review it in the time off queue.",
			r.StartDate.Format("Jan 2"), r.EndDate.Format("Jan 2"), r.BusinessDays))
}

// TimeOffReviewed tells the requester the outcome.
func (s *Service) TimeOffReviewed(ctx context.Context, r timeoff.Request) {
	title := fmt.Sprintf("Your time off request was %s", lower(r.Status))
	body := fmt.Sprintf("%s to %s", r.StartDate.Format("Jan 2"), r.EndDate.Format("Jan 2"))
	if r.ReviewNote != "" {
		body += "\nNote: " + r.ReviewNote
	}
	s.Notify(ctx, r.EmployeeID, KindTimeOff, title, body)
}

func lower(status string) string {
	switch status {
	case timeoff.StatusApproved:
		return "approved"
	case timeoff.StatusRejected:
		return "rejected"
	default:
		return status
	}
}
