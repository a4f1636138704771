// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Category registry operations
	EnsureReservedCategory(ctx context.Context, userID string) error
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetEffectiveBudgets(ctx context.Context, userID string, month time.Time) ([]model.EffectiveBudget, error)
	CreateCategory(ctx context.Context, userID, name string, budget model.Money) (*model.Category, error)
	UpdateCategory(ctx context.Context, userID, oldName, newName string, newBudget *model.Money) error
	SetBudgetOverride(ctx context.Context, userID, category string, month time.Time, budget model.Money) error
	ClearBudgetOverride(ctx context.Context, userID, category string, month time.Time) error
	DeleteCategory(ctx context.Context, userID, category string) error

	// Transaction operations
	SaveTransactions(ctx context.Context, userID string, txns []model.Transaction) error
	GetOrphanedTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
	GetTransactionsByMonth(ctx context.Context, userID string, month time.Time) ([]model.Transaction, error)
	UpdateTransactionCategories(ctx context.Context, userID string, reclassifications []model.Reclassification) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Entry is the minimal view of a transaction sent to the classifier.
type Entry struct {
	Detail string
	ID     int64
}

// Reclassifier assigns categories to a set of entries using an external
// classifier, in order-preserving batches.
type Reclassifier interface {
	Reclassify(ctx context.Context, categories []string, entries []Entry) ([]model.Reclassification, error)
}
