package project

import "time"

const (
	ProjectActive    = "ACTIVE"
	ProjectOnHold    = "ON_HOLD"
	ProjectCompleted = "COMPLETED"
	ProjectArchived  = "ARCHIVED"
)

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contactName,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Project struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId,omitempty"`
	ClientName  string     `json:"clientName,omitempty"`
	Name        string     `json:"name"`
	Code        string     `json:"code,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Assignment struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	Role         string    `json:"role,omitempty"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// TimeLog is hours an employee booked against a project on one date.
type TimeLog struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	ProjectName  string    `json:"projectName,omitempty"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	LogDate      time.Time `json:"logDate"`
	Hours        float64   `json:"hours"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TimeLogInput struct {
	ProjectID string
	LogDate   time.Time
	Hours     float64
	Note      string
}

// ProjectHours is an aggregate row for reporting.
type ProjectHours struct {
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName"`
	TotalHours  float64 `json:"totalHours"`
}
