// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Registry errors.
	ErrDuplicateCategory    = errors.New("category already exists")
	ErrCannotDeleteReserved = errors.New("the reserved category cannot be deleted")
	ErrCannotRenameReserved = errors.New("the reserved category cannot be renamed")
	ErrReservedBudgetFixed  = errors.New("the reserved category budget is fixed at 0")
	ErrNegativeBudget       = errors.New("budget cannot be negative")

	// Reconciliation errors.
	ErrDeleteFailed           = errors.New("category deletion failed")
	ErrReclassificationFailed = errors.New("reclassification failed")
	ErrReallocationFailed     = errors.New("month reallocation failed")

	// Classifier errors.
	ErrEmptyResponse     = errors.New("classifier returned an empty response")
	ErrMalformedResponse = errors.New("classifier returned malformed output")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
