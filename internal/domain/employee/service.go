package employee

import (
	"context"
	"net/mail"
	"strings"

	"bonarda/internal/domain/auth"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	e, err := s.Store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.Store.List(ctx, filter)
}

func (s *Service) Reports(ctx context.Context, managerID string) ([]Employee, error) {
	return s.Store.ListReports(ctx, managerID)
}

// Create registers a new employee. An initial password produces an active
// account; without one the account stays invited until credentials are set.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Employee, error) {
	if err := validateName(input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}

	status := StatusInvited
	passwordHash := ""
	if input.Password != "" {
		if len(input.Password) < 8 {
			return nil, ruleErr("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = hash
		status = StatusActive
	}
	return s.Store.Create(ctx, input, passwordHash, status)
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Employee, error) {
	if err := validateName(input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	switch input.Status {
	case StatusActive, StatusInactive, StatusInvited:
	default:
		return nil, ruleErr("status must be ACTIVE, INACTIVE or INVITED")
	}
	if input.ReportsTo == id {
		return nil, ruleErr("an employee cannot report to themselves")
	}
	return s.Store.Update(ctx, id, input)
}

// Deactivate soft-deletes: the record stays for history but the account can
// no longer sign in.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.Store.Deactivate(ctx, id)
}

func (s *Service) Sections(ctx context.Context) ([]Section, error) {
	return s.Store.ListSections(ctx)
}

func (s *Service) CreateSection(ctx context.Context, name string, position int) (*Section, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ruleErr("section name is required")
	}
	return s.Store.CreateSection(ctx, name, position)
}

func (s *Service) UpdateSection(ctx context.Context, id, name string, position int) (*Section, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ruleErr("section name is required")
	}
	return s.Store.UpdateSection(ctx, id, name, position)
}

func (s *Service) DeleteSection(ctx context.Context, id string) error {
	return s.Store.DeleteSection(ctx, id)
}

func (s *Service) CreateField(ctx context.Context, f Field) (*Field, error) {
	if f.Editable == "" {
		f.Editable = EditableAdmin
	}
	if err := validateField(f); err != nil {
		return nil, err
	}
	return s.Store.CreateField(ctx, f)
}

func (s *Service) UpdateField(ctx context.Context, f Field) (*Field, error) {
	if f.Editable == "" {
		f.Editable = EditableAdmin
	}
	if err := validateField(f); err != nil {
		return nil, err
	}
	return s.Store.UpdateField(ctx, f)
}

func (s *Service) DeleteField(ctx context.Context, id string) error {
	return s.Store.DeleteField(ctx, id)
}

func (s *Service) FieldValues(ctx context.Context, employeeID string) ([]FieldValue, error) {
	return s.Store.FieldValues(ctx, employeeID)
}

// SetFieldValue validates a value against its field definition and stores
// it. selfService marks a caller editing their own profile without the
// employee-update grant; such callers may only touch EMPLOYEE-editable
// fields.
func (s *Service) SetFieldValue(ctx context.Context, employeeID, fieldID, value string, selfService bool) error {
	f, err := s.Store.FieldByID(ctx, fieldID)
	if err != nil {
		return err
	}
	if f == nil {
		return ruleErr("unknown profile field")
	}
	if selfService && f.Editable != EditableEmployee {
		return ruleErr(f.Label + " can only be changed by an administrator")
	}
	if f.Required && strings.TrimSpace(value) == "" {
		return ruleErr(f.Label + " is required")
	}
	if f.Kind == FieldSelect && value != "" && !contains(f.Options, value) {
		return ruleErr(value + " is not an allowed option for " + f.Label)
	}
	return s.Store.SetFieldValue(ctx, employeeID, fieldID, value)
}

func validateName(first, last string) error {
	if strings.TrimSpace(first) == "" || strings.TrimSpace(last) == "" {
		return ruleErr("first and last name are required")
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ruleErr("invalid email address")
	}
	return nil
}

func validateField(f Field) error {
	if strings.TrimSpace(f.Label) == "" {
		return ruleErr("field label is required")
	}
	switch f.Kind {
	case FieldText, FieldNumber, FieldDate, FieldSelect:
	default:
		return ruleErr("field kind must be TEXT, NUMBER, DATE or SELECT")
	}
	if f.Kind == FieldSelect && len(f.Options) == 0 {
		return ruleErr("a SELECT field needs at least one option")
	}
	switch f.Editable {
	case EditableEmployee, EditableAdmin:
	default:
		return ruleErr("field editability must be EMPLOYEE or ADMIN")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
