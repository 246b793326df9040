package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/domain/document"
	"bonarda/internal/domain/notification"
	"bonarda/internal/domain/timeoff"
	"bonarda/internal/platform/config"
)

const (
	JobBalanceRollover    = "balance_rollover"
	JobSignatureReminders = "signature_reminders"
)

type Service struct {
	DB            *pgxpool.Pool
	Cfg           config.Config
	Documents     document.StoreAPI
	Notifications *notification.Service
	queue         chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, documents document.StoreAPI, notifications *notification.Service) *Service {
	return &Service{
		DB:            db,
		Cfg:           cfg,
		Documents:     documents,
		Notifications: notifications,
		queue:         make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.BalanceRolloverCheck > 0 {
		go s.schedule(ctx, s.Cfg.BalanceRolloverCheck, JobBalanceRollover, s.runRollover)
	}
	if s.Cfg.SignatureReminderCheck > 0 {
		go s.schedule(ctx, s.Cfg.SignatureReminderCheck, JobSignatureReminders, s.runSignatureReminders)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// TriggerRollover runs the balance rollover synchronously, for the admin
// endpoint.
func (s *Service) TriggerRollover(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobBalanceRollover, s.runRollover)
}

func (s *Service) TriggerSignatureReminders(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobSignatureReminders, s.runSignatureReminders)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, $2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, jobType string, run func(context.Context) (any, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}

// runRollover seeds the current year's balances from last year's. A no-op
// for employees already rolled over, so the periodic re-check is harmless.
func (s *Service) runRollover(ctx context.Context) (any, error) {
	year := time.Now().Year()
	created, err := timeoff.ApplyYearRollover(ctx, s.DB, year)
	return map[string]any{"year": year, "created": created}, err
}

// runSignatureReminders nudges employees whose pending signatures are due
// within three days.
func (s *Service) runSignatureReminders(ctx context.Context) (any, error) {
	due, err := s.Documents.ListPendingSignaturesDueBy(ctx, time.Now().AddDate(0, 0, 3))
	if err != nil {
		return nil, err
	}
	for _, req := range due {
		s.Notifications.Notify(ctx, req.EmployeeID, notification.KindSignature,
			fmt.Sprintf("Signature due: %s", req.Title),
			fmt.Sprintf("Please sign %q by %s.", req.Title, req.Deadline.Format("Jan 2")))
	}
	return map[string]any{"reminded": len(due)}, nil
}
