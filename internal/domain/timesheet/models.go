package timesheet

import "time"

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

type Timesheet struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	WeekStart    time.Time  `json:"weekStart"`
	Status       string     `json:"status"`
	TotalHours   float64    `json:"totalHours"`
	Entries      []Entry    `json:"entries,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	ReviewerID   string     `json:"reviewerId,omitempty"`
	ReviewerName string     `json:"reviewerName,omitempty"`
	ReviewNote   string     `json:"reviewNote,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Entry struct {
	ID        string    `json:"id"`
	EntryDate time.Time `json:"entryDate"`
	ClockIn   string    `json:"clockIn,omitempty"`
	ClockOut  string    `json:"clockOut,omitempty"`
	Hours     float64   `json:"hours"`
}

// EntryInput is one row of a bulk entry replacement. Hours are always
// recomputed server-side from the clock pair.
type EntryInput struct {
	EntryDate time.Time
	ClockIn   string
	ClockOut  string
}

type ListResult struct {
	Items []Timesheet `json:"items"`
	Total int         `json:"total"`
}
