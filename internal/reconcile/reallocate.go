package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
)

// ReallocateMonth re-runs classification across the user's entire transaction
// set for the month, not just orphans, and atomically rewrites categories for
// that window.
//
// Unlike the post-delete sweep, any failure here aborts the whole operation:
// nothing was destroyed first, so "nothing changed" is a safe outcome.
// The returned slice is the fetched set annotated with each row's resulting
// category; rows the classifier skipped keep their prior value.
func (r *Reconciler) ReallocateMonth(ctx context.Context, userID string, month time.Time) ([]model.Transaction, error) {
	txns, err := r.store.GetTransactionsByMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrReallocationFailed, err)
	}
	if len(txns) == 0 {
		return []model.Transaction{}, nil
	}

	names, err := r.validCategoryNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrReallocationFailed, err)
	}

	reclassifications, err := r.reclassifier.Reclassify(ctx, names, toEntries(txns))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrReallocationFailed, err)
	}

	if len(reclassifications) > 0 {
		if err := r.store.UpdateTransactionCategories(ctx, userID, reclassifications); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrReallocationFailed, err)
		}
	}

	// Annotate the fetched set for immediate display
	byID := make(map[int64]string, len(reclassifications))
	for _, rc := range reclassifications {
		category := rc.Category
		if category == "" {
			category = model.ReservedCategory
		}
		byID[rc.ID] = category
	}
	for i := range txns {
		if category, ok := byID[txns[i].ID]; ok {
			txns[i].Category = category
		}
	}

	r.logger.Info("month reallocated",
		"user", userID,
		"month", model.MonthOf(month).Format("2006-01"),
		"transactions", len(txns),
		"reclassified", len(reclassifications))
	return txns, nil
}
