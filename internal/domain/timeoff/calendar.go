package timeoff

import (
	"context"
	"log/slog"
)

// LogCalendarSync is the default CalendarSync used when no external calendar
// integration is configured. It records the transition and succeeds.
type LogCalendarSync struct {
	Logger *slog.Logger
}

func (c *LogCalendarSync) SyncApproved(ctx context.Context, r Request) error {
	c.Logger.Info("calendar sync: leave approved",
		"requestId", r.ID,
		"employeeId", r.EmployeeID,
		"start", r.StartDate.Format("2006-01-02"),
		"end", r.EndDate.Format("2006-01-02"))
	return nil
}

func (c *LogCalendarSync) RemoveCancelled(ctx context.Context, r Request) error {
	c.Logger.Info("calendar sync: leave cancelled",
		"requestId", r.ID,
		"employeeId", r.EmployeeID)
	return nil
}
