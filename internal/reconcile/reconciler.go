// Package reconcile orchestrates the category-assignment pipeline: destructive
// category deletion with a best-effort reclassification sweep of the orphans
// it leaves behind, and whole-month reallocation.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/service"
)

// Reconciler coordinates the store and the batch reclassifier.
type Reconciler struct {
	store        service.Storage
	reclassifier service.Reclassifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewReconciler creates a reconciler.
func NewReconciler(store service.Storage, reclassifier service.Reclassifier, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:        store,
		reclassifier: reclassifier,
		logger:       logger,
		now:          time.Now,
	}
}

// DeleteReport describes the outcome of a category deletion.
type DeleteReport struct {
	// ReclassifyErr holds the absorbed sweep failure when Degraded is set.
	ReclassifyErr error
	Category      string
	// Reclassified is how many orphans the sweep moved to a new category.
	Reclassified int
	// Orphaned is how many transactions lost their category in the delete.
	Orphaned int
	// Degraded means the category was durably deleted but the orphan sweep
	// failed; affected transactions remain unclassified.
	Degraded bool
}

// DeleteCategory removes a category and then reassigns the transactions it
// orphaned.
//
// The deletion itself is atomic: overrides, transaction references and the
// category row go together or not at all. The sweep that follows is
// best-effort and runs outside the delete transaction on purpose, so a
// classifier outage can never undo a deletion the user already asked for.
// Sweep failures are reported as a degraded success, not an error.
func (r *Reconciler) DeleteCategory(ctx context.Context, userID, category string) (*DeleteReport, error) {
	if model.IsReserved(category) {
		return nil, common.ErrCannotDeleteReserved
	}

	if err := r.store.DeleteCategory(ctx, userID, category); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDeleteFailed, err)
	}

	report := &DeleteReport{Category: category}

	orphans, err := r.store.GetOrphanedTransactions(ctx, userID)
	if err != nil {
		return r.degrade(report, fmt.Errorf("fetching orphans: %w", err)), nil
	}
	report.Orphaned = len(orphans)
	if len(orphans) == 0 {
		return report, nil
	}

	names, err := r.validCategoryNames(ctx, userID)
	if err != nil {
		return r.degrade(report, fmt.Errorf("fetching categories: %w", err)), nil
	}

	reclassifications, err := r.reclassifier.Reclassify(ctx, names, toEntries(orphans))
	if err != nil {
		return r.degrade(report, err), nil
	}
	if len(reclassifications) == 0 {
		return report, nil
	}

	if err := r.store.UpdateTransactionCategories(ctx, userID, reclassifications); err != nil {
		return r.degrade(report, fmt.Errorf("applying reclassifications: %w", err)), nil
	}

	report.Reclassified = len(reclassifications)
	r.logger.Info("category deleted and orphans reassigned",
		"user", userID,
		"category", category,
		"orphaned", report.Orphaned,
		"reclassified", report.Reclassified)
	return report, nil
}

// degrade marks a report as degraded-success and logs the absorbed error.
// The deletion is already durable at this point; the failure must not mask it.
func (r *Reconciler) degrade(report *DeleteReport, err error) *DeleteReport {
	report.Degraded = true
	report.ReclassifyErr = fmt.Errorf("%w: %v", common.ErrReclassificationFailed, err)
	r.logger.Warn("category deleted but orphan reassignment failed",
		"category", report.Category,
		"error", err)
	return report
}

// validCategoryNames returns the user's category names, scoped to the current
// month so any month overrides have been lazily materialized the same way the
// budget view sees them.
func (r *Reconciler) validCategoryNames(ctx context.Context, userID string) ([]string, error) {
	budgets, err := r.store.GetEffectiveBudgets(ctx, userID, model.MonthOf(r.now().UTC()))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(budgets))
	for i, b := range budgets {
		names[i] = b.Category
	}
	return names, nil
}

func toEntries(txns []model.Transaction) []service.Entry {
	entries := make([]service.Entry, len(txns))
	for i, t := range txns {
		entries[i] = service.Entry{ID: t.ID, Detail: t.Detail}
	}
	return entries
}
