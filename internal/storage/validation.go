// Package storage provides the data persistence layer for the application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidMonth = errors.New("month must be a first-of-month date")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// normalizeMonth collapses any date within a month to its first day so that
// override rows always key on the same value.
func normalizeMonth(month time.Time) (time.Time, error) {
	if month.IsZero() {
		return time.Time{}, ErrInvalidMonth
	}
	return model.MonthOf(month), nil
}
