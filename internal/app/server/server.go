package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/document"
	"bonarda/internal/domain/employee"
	"bonarda/internal/domain/event"
	"bonarda/internal/domain/notification"
	"bonarda/internal/domain/project"
	"bonarda/internal/domain/timeoff"
	"bonarda/internal/domain/timesheet"
	"bonarda/internal/platform/config"
	cryptoutil "bonarda/internal/platform/crypto"
	"bonarda/internal/platform/db"
	"bonarda/internal/platform/email"
	"bonarda/internal/platform/jobs"
	"bonarda/internal/platform/metrics"
	adminhandler "bonarda/internal/transport/http/handlers/admin"
	authhandler "bonarda/internal/transport/http/handlers/auth"
	dashboardhandler "bonarda/internal/transport/http/handlers/dashboard"
	documenthandler "bonarda/internal/transport/http/handlers/document"
	employeehandler "bonarda/internal/transport/http/handlers/employee"
	eventhandler "bonarda/internal/transport/http/handlers/event"
	notificationhandler "bonarda/internal/transport/http/handlers/notification"
	projecthandler "bonarda/internal/transport/http/handlers/project"
	timeoffhandler "bonarda/internal/transport/http/handlers/timeoff"
	timesheethandler "bonarda/internal/transport/http/handlers/timesheet"
	"bonarda/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// New connects, migrates, seeds and wires the full service graph. Callers own
// the pool and should defer app.DB.Close().
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	var sender email.Sender
	if cfg.EmailEnabled {
		sender = &email.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}
	} else {
		sender = &email.NoopSender{Logger: logger}
	}

	authStore := auth.NewStore(pool)
	auditSvc := audit.NewService(pool, logger)
	notifications := notification.NewService(pool, sender, logger)

	employeeSvc := employee.NewService(employee.NewStore(pool))
	timesheetSvc := timesheet.NewService(timesheet.NewStore(pool))

	timeoffSvc := timeoff.NewService(timeoff.NewStore(pool), cryptoSvc, cfg.AttachmentDir, logger)
	timeoffSvc.Notifier = notifications
	timeoffSvc.Calendar = &timeoff.LogCalendarSync{Logger: logger}

	projectSvc := project.NewService(project.NewStore(pool))
	eventSvc := event.NewService(event.NewStore(pool))

	documentStore := document.NewStore(pool)
	documentSvc := document.NewService(documentStore, cryptoSvc, cfg.AttachmentDir, document.NewStaticSharePoint())

	jobsSvc := jobs.New(pool, cfg, documentStore, notifications)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recover)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.LoadPermissions(authStore))
	router.Use(middleware.Metrics(collector))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireAuth).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.Idempotency(middleware.NewIdempotencyStore(pool)))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(cfg.RateLimitPerMinute, time.Minute))
			authhandler.NewHandler(authStore, cfg.JWTSecret, cryptoSvc, auditSvc, cfg.AllowDevLogin).RegisterRoutes(r)
		})

		employeehandler.NewHandler(employeeSvc, auditSvc).RegisterRoutes(r)
		timesheethandler.NewHandler(timesheetSvc, auditSvc).RegisterRoutes(r)
		timeoffhandler.NewHandler(timeoffSvc, auditSvc).RegisterRoutes(r)
		projecthandler.NewHandler(projectSvc, auditSvc).RegisterRoutes(r)
		documenthandler.NewHandler(documentSvc, auditSvc).RegisterRoutes(r)
		eventhandler.NewHandler(eventSvc, auditSvc).RegisterRoutes(r)
		dashboardhandler.NewHandler(timesheetSvc, timeoffSvc, eventSvc).RegisterRoutes(r)
		notificationhandler.NewHandler(notifications).RegisterRoutes(r)
		adminhandler.NewHandler(authStore, auditSvc, jobsSvc).RegisterRoutes(r)
	})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Metrics: collector,
		Logger:  logger,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.DB.Close()
}

// Run starts the background job worker and serves until the listener fails.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)

	a.Logger.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
