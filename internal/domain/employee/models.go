package employee

import "time"

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusInvited  = "INVITED"
)

type Employee struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	JobTitle    string     `json:"jobTitle,omitempty"`
	Department  string     `json:"department,omitempty"`
	Location    string     `json:"location,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	ReportsTo   string     `json:"reportsTo,omitempty"`
	ManagerName string     `json:"managerName,omitempty"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Section is an admin-configurable group of profile fields.
type Section struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Fields   []Field `json:"fields,omitempty"`
}

const (
	FieldText   = "TEXT"
	FieldNumber = "NUMBER"
	FieldDate   = "DATE"
	FieldSelect = "SELECT"
)

// Who may write a field's value: the employee themselves, or admins only.
const (
	EditableEmployee = "EMPLOYEE"
	EditableAdmin    = "ADMIN"
)

type Field struct {
	ID        string   `json:"id"`
	SectionID string   `json:"sectionId"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required"`
	Options   []string `json:"options,omitempty"`
	Editable  string   `json:"editable"`
	Position  int      `json:"position"`
}

// FieldValue is one employee's answer for one configurable field.
type FieldValue struct {
	FieldID string `json:"fieldId"`
	Label   string `json:"label,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Value   string `json:"value"`
}

type CreateInput struct {
	FirstName  string
	LastName   string
	Email      string
	JobTitle   string
	Department string
	Location   string
	Phone      string
	StartDate  *time.Time
	ReportsTo  string
	Password   string
}

type UpdateInput struct {
	FirstName  string
	LastName   string
	JobTitle   string
	Department string
	Location   string
	Phone      string
	StartDate  *time.Time
	ReportsTo  string
	Status     string
}

type ListFilter struct {
	Search     string
	Department string
	Status     string
	Limit      int
	Offset     int
}

type ListResult struct {
	Items []Employee `json:"items"`
	Total int        `json:"total"`
}

// ImportReport summarizes a CSV bulk import.
type ImportReport struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors,omitempty"`
}

type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}
