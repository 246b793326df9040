package timeoff

import "time"

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	AttachmentNever       = "NEVER"
	AttachmentAlways      = "ALWAYS"
	AttachmentConditional = "CONDITIONAL"
)

const (
	HalfDayMorning   = "MORNING"
	HalfDayAfternoon = "AFTERNOON"
)

// Type is a leave category such as annual leave or sick leave.
type Type struct {
	ID                          string  `json:"id"`
	Name                        string  `json:"name"`
	Description                 string  `json:"description,omitempty"`
	Color                       string  `json:"color,omitempty"`
	DefaultAllocation           float64 `json:"defaultAllocation"`
	MaxCarryOver                float64 `json:"maxCarryOver"`
	AttachmentRequirement       string  `json:"attachmentRequirement"`
	AttachmentRequiredAfterDays int     `json:"attachmentRequiredAfterDays"`
	RequiresApproval            bool    `json:"requiresApproval"`
	Unlimited                   bool    `json:"isUnlimited"`
	Active                      bool    `json:"active"`
}

// Balance tracks one employee's allowance for one type in one year.
type Balance struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	TypeID     string  `json:"typeId"`
	TypeName   string  `json:"typeName,omitempty"`
	Year       int     `json:"year"`
	Allocated  float64 `json:"allocated"`
	CarryOver  float64 `json:"carryOver"`
	Used       float64 `json:"used"`
	Pending    float64 `json:"pending"`
}

// Remaining is the number of days still available to request.
func (b Balance) Remaining() float64 {
	return b.Allocated + b.CarryOver - b.Used - b.Pending
}

type Request struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employeeId"`
	EmployeeName   string     `json:"employeeName,omitempty"`
	TypeID         string     `json:"typeId"`
	TypeName       string     `json:"typeName,omitempty"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	HalfDay        string     `json:"halfDay,omitempty"`
	BusinessDays   float64    `json:"businessDays"`
	Reason         string     `json:"reason,omitempty"`
	Status         string     `json:"status"`
	AttachmentID   string     `json:"attachmentId,omitempty"`
	AttachmentName string     `json:"attachmentName,omitempty"`
	ReviewerID     string     `json:"reviewerId,omitempty"`
	ReviewerName   string     `json:"reviewerName,omitempty"`
	ReviewNote     string     `json:"reviewNote,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type CreateRequestInput struct {
	TypeID    string
	StartDate time.Time
	EndDate   time.Time
	HalfDay   string
	Reason    string
}

// Attachment is supporting evidence for a request, encrypted at rest.
type Attachment struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type ListResult struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}
