package employee

import "errors"

var (
	ErrNotFound       = errors.New("employee not found")
	ErrDuplicateEmail = errors.New("an employee with this email already exists")
)

// RuleError is a business-rule rejection surfaced verbatim to the caller.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErr(message string) error {
	return &RuleError{Message: message}
}
