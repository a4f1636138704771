package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
)

// EnsureReservedCategory idempotently inserts the reserved fallback category
// for the user. Every listing path calls this first, so a brand-new user
// always sees the fallback bucket.
func (s *SQLiteStorage) EnsureReservedCategory(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO categories (user_id, name, budget)
		VALUES (?, ?, 0)`, userID, model.ReservedCategory)
	if err != nil {
		return fmt.Errorf("failed to ensure reserved category: %w", err)
	}
	return nil
}

// GetCategories returns all categories for the user.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	if err := s.EnsureReservedCategory(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, budget, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.UserID, &cat.Name, &cat.Budget, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "user", userID, "count", len(categories))
	return categories, nil
}

// GetEffectiveBudgets returns each category with its budget as effective in
// the given month: the override value when one exists, the global budget
// otherwise.
func (s *SQLiteStorage) GetEffectiveBudgets(ctx context.Context, userID string, month time.Time) ([]model.EffectiveBudget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	m, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureReservedCategory(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.name,
			COALESCE(o.budget, c.budget) AS budget,
			o.category IS NOT NULL AS is_override
		FROM categories c
		LEFT JOIN budget_overrides o
			ON o.category = c.name
			AND o.user_id = c.user_id
			AND o.month = ?
		WHERE c.user_id = ?
		ORDER BY c.name`, m, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query effective budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.EffectiveBudget
	for rows.Next() {
		var b model.EffectiveBudget
		if err := rows.Scan(&b.Category, &b.Budget, &b.IsOverride); err != nil {
			return nil, fmt.Errorf("failed to scan effective budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating effective budgets: %w", err)
	}

	return budgets, nil
}

// CreateCategory inserts a new category. A (user, name) collision surfaces as
// common.ErrDuplicateCategory so callers can report it distinctly.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, userID, name string, budget model.Money) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if budget.IsNegative() {
		return nil, common.ErrNegativeBudget
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, budget, created_at)
		VALUES (?, ?, ?, ?)`, userID, name, budget, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicateCategory, name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "user", userID, "name", name, "budget", budget)
	return &model.Category{
		UserID:    userID,
		Name:      name,
		Budget:    budget,
		CreatedAt: now,
	}, nil
}

// UpdateCategory renames a category and/or replaces its global budget. At
// least one change must be supplied. The reserved category accepts neither: it
// cannot be renamed and its budget stays at zero. A rename carries all
// transaction rows along so historical spending follows the new name.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, userID, oldName, newName string, newBudget *model.Money) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(oldName, "oldName"); err != nil {
		return err
	}
	if newName == "" && newBudget == nil {
		return fmt.Errorf("at least one of newName or newBudget is required")
	}
	if model.IsReserved(oldName) {
		if newName != "" {
			return common.ErrCannotRenameReserved
		}
		return common.ErrReservedBudgetFixed
	}
	if newBudget != nil && newBudget.IsNegative() {
		return common.ErrNegativeBudget
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		target := oldName
		if newName != "" {
			target = newName
		}

		var res sql.Result
		var err error
		if newBudget != nil {
			res, err = tx.ExecContext(ctx, `
				UPDATE categories SET name = ?, budget = ?
				WHERE user_id = ? AND name = ?`, target, *newBudget, userID, oldName)
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE categories SET name = ?
				WHERE user_id = ? AND name = ?`, target, userID, oldName)
		}
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				return fmt.Errorf("%w: %s", common.ErrDuplicateCategory, target)
			}
			return fmt.Errorf("failed to update category: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: category %q", common.ErrNotFound, oldName)
		}

		if newName != "" && newName != oldName {
			if _, err := tx.ExecContext(ctx, `
				UPDATE budget_overrides SET category = ?
				WHERE user_id = ? AND category = ?`, newName, userID, oldName); err != nil {
				return fmt.Errorf("failed to move overrides: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE transactions SET category = ?
				WHERE user_id = ? AND category = ?`, newName, userID, oldName); err != nil {
				return fmt.Errorf("failed to move transactions: %w", err)
			}
			slog.Info("renamed category", "user", userID, "from", oldName, "to", newName)
		}
		return nil
	})
}

// SetBudgetOverride upserts a month-scoped budget: insert the row, or
// overwrite its budget when the (user, category, month) triple already exists.
func (s *SQLiteStorage) SetBudgetOverride(ctx context.Context, userID, category string, month time.Time, budget model.Money) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if budget.IsNegative() {
		return common.ErrNegativeBudget
	}
	m, err := normalizeMonth(month)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO budget_overrides (user_id, category, month, budget)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, category, month)
		DO UPDATE SET budget = excluded.budget`, userID, category, m, budget)
	if err != nil {
		return fmt.Errorf("failed to set budget override: %w", err)
	}

	slog.Info("set budget override", "user", userID, "category", category,
		"month", m.Format("2006-01"), "budget", budget)
	return nil
}

// ClearBudgetOverride deletes the matching override row only; the global
// category and its transactions are untouched.
func (s *SQLiteStorage) ClearBudgetOverride(ctx context.Context, userID, category string, month time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	m, err := normalizeMonth(month)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM budget_overrides
		WHERE user_id = ? AND category = ? AND month = ?`, userID, category, m)
	if err != nil {
		return fmt.Errorf("failed to clear budget override: %w", err)
	}
	return nil
}

// DeleteCategory removes a category in a single transaction: overrides go
// first, matching transaction rows are orphaned, then the category row is
// deleted. All three steps succeed or roll back together.
//
// The reserved-category guard lives in the reconciler; this method only
// refuses it defensively by name so no storage path can remove it.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, userID, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if model.IsReserved(category) {
		return common.ErrCannotDeleteReserved
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Overrides first to avoid foreign key surprises on the category row
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM budget_overrides
			WHERE user_id = ? AND category = ?`, userID, category); err != nil {
			return fmt.Errorf("failed to delete overrides: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET category = NULL
			WHERE user_id = ? AND category = ?`, userID, category); err != nil {
			return fmt.Errorf("failed to orphan transactions: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM categories
			WHERE user_id = ? AND name = ?`, userID, category)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: category %q", common.ErrNotFound, category)
		}

		slog.Info("deleted category", "user", userID, "category", category)
		return nil
	})
}
