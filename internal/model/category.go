// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// ReservedCategory is the always-present fallback bucket. It can never be
// deleted or renamed, and its budget is fixed at zero.
const ReservedCategory = "Other"

// IsReserved reports whether name refers to the reserved fallback category.
// The match is case-insensitive so "other" cannot slip past the delete guard.
func IsReserved(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), ReservedCategory)
}

// Category is a user-defined spending bucket with a monthly budget ceiling.
type Category struct {
	CreatedAt time.Time
	UserID    string
	Name      string
	Budget    Money
}

// BudgetOverride is a month-specific budget value that shadows the category's
// global budget for that month only. Month is always first-of-month UTC.
type BudgetOverride struct {
	Month    time.Time
	UserID   string
	Category string
	Budget   Money
}

// EffectiveBudget is a category's budget as seen within a given month: the
// override value when one exists, otherwise the global budget.
type EffectiveBudget struct {
	Category   string
	Budget     Money
	IsOverride bool
}
