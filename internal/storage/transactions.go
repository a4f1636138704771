package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

// SaveTransactions inserts a batch of transactions in one transaction and
// fills in the generated row ids. Rows arrive unclassified unless the caller
// set a category.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, userID string, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (user_id, date, category, detail, amount)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range txns {
			var category any
			if txns[i].Category != "" {
				category = txns[i].Category
			}
			res, err := stmt.ExecContext(ctx, userID, txns[i].Date, category, txns[i].Detail, txns[i].Amount)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %d: %w", i, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get transaction id: %w", err)
			}
			txns[i].ID = id
			txns[i].UserID = userID
		}

		slog.Info("saved transactions", "user", userID, "count", len(txns))
		return nil
	})
}

// GetOrphanedTransactions returns all of the user's transactions with no
// category assignment.
func (s *SQLiteStorage) GetOrphanedTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, category, detail, amount
		FROM transactions
		WHERE user_id = ? AND category IS NULL
		ORDER BY date`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionsByMonth returns the user's transactions within the half-open
// window [month, month+1).
func (s *SQLiteStorage) GetTransactionsByMonth(ctx context.Context, userID string, month time.Time) ([]model.Transaction, error) {
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, category, detail, amount
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date DESC`, userID, m, model.NextMonth(m))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by month: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// UpdateTransactionCategories applies a set of classifier verdicts in one
// atomic transaction. Each row updates independently, matched on both id and
// user; empty categories fall back to the reserved name. Ids that match no
// row are tolerated.
func (s *SQLiteStorage) UpdateTransactionCategories(ctx context.Context, userID string, reclassifications []model.Reclassification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if len(reclassifications) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE transactions SET category = ?
			WHERE id = ? AND user_id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare update: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, rc := range reclassifications {
			category := rc.Category
			if category == "" {
				category = model.ReservedCategory
			}
			if _, err := stmt.ExecContext(ctx, category, rc.ID, userID); err != nil {
				return fmt.Errorf("failed to update transaction %d: %w", rc.ID, err)
			}
		}

		slog.Info("updated transaction categories", "user", userID, "count", len(reclassifications))
		return nil
	})
}

// scanTransactions drains a result set of transaction rows.
func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var category sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &category, &t.Detail, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Category = category.String
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
