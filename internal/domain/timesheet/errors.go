package timesheet

import "errors"

var (
	ErrNotFound  = errors.New("timesheet not found")
	ErrForbidden = errors.New("forbidden")
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
