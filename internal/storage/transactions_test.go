package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

func TestSaveTransactionsAssignsIDs(t *testing.T) {
	store := createTestStorage(t)

	txns := []model.Transaction{
		{Date: date(2024, 3, 1), Detail: "WALMART", Amount: -4599},
		{Date: date(2024, 3, 2), Detail: "SHELL", Amount: -3000},
	}
	require.NoError(t, store.SaveTransactions(context.Background(), "u1", txns))

	assert.NotZero(t, txns[0].ID)
	assert.NotZero(t, txns[1].ID)
	assert.NotEqual(t, txns[0].ID, txns[1].ID)
	assert.Equal(t, "u1", txns[0].UserID)
}

func TestSaveTransactionsEmptySliceIsNoop(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.SaveTransactions(context.Background(), "u1", nil))
}

func TestGetOrphanedTransactions(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	seedTransactions(t, store, "u1", []model.Transaction{
		{Date: date(2024, 3, 1), Detail: "WALMART", Amount: -4599},
		{Date: date(2024, 3, 2), Category: "Groceries", Detail: "KROGER", Amount: -2100},
	})
	seedTransactions(t, store, "u2", []model.Transaction{
		{Date: date(2024, 3, 1), Detail: "OTHER USER", Amount: -100},
	})

	orphans, err := store.GetOrphanedTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "WALMART", orphans[0].Detail)
	assert.True(t, orphans[0].Orphaned())
}

func TestGetTransactionsByMonthWindowIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	seedTransactions(t, store, "u1", []model.Transaction{
		{Date: date(2024, 2, 29), Detail: "BEFORE", Amount: -100},
		{Date: date(2024, 3, 1), Detail: "FIRST DAY", Amount: -200},
		{Date: date(2024, 3, 31), Detail: "LAST DAY", Amount: -300},
		{Date: date(2024, 4, 1), Detail: "NEXT MONTH", Amount: -400},
	})

	txns, err := store.GetTransactionsByMonth(ctx, "u1", date(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	var details []string
	for _, tx := range txns {
		details = append(details, tx.Detail)
	}
	assert.ElementsMatch(t, []string{"FIRST DAY", "LAST DAY"}, details)
}

func TestUpdateTransactionCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("applies verdicts and substitutes the reserved fallback", func(t *testing.T) {
		store := createTestStorage(t)
		txns := seedTransactions(t, store, "u1", []model.Transaction{
			{Date: date(2024, 3, 1), Detail: "WALMART", Amount: -4599},
			{Date: date(2024, 3, 2), Detail: "UNKNOWN VENDOR", Amount: -999},
		})

		err := store.UpdateTransactionCategories(ctx, "u1", []model.Reclassification{
			{ID: txns[0].ID, Category: "Groceries"},
			{ID: txns[1].ID, Category: ""},
		})
		require.NoError(t, err)

		got, err := store.GetTransactionsByMonth(ctx, "u1", date(2024, 3, 1))
		require.NoError(t, err)
		byDetail := make(map[string]string)
		for _, tx := range got {
			byDetail[tx.Detail] = tx.Category
		}
		assert.Equal(t, "Groceries", byDetail["WALMART"])
		assert.Equal(t, model.ReservedCategory, byDetail["UNKNOWN VENDOR"])
	})

	t.Run("unknown ids are tolerated", func(t *testing.T) {
		store := createTestStorage(t)
		err := store.UpdateTransactionCategories(ctx, "u1", []model.Reclassification{
			{ID: 424242, Category: "Groceries"},
		})
		require.NoError(t, err)
	})

	t.Run("does not cross user boundaries", func(t *testing.T) {
		store := createTestStorage(t)
		txns := seedTransactions(t, store, "owner", []model.Transaction{
			{Date: date(2024, 3, 1), Detail: "PRIVATE", Amount: -100},
		})

		err := store.UpdateTransactionCategories(ctx, "intruder", []model.Reclassification{
			{ID: txns[0].ID, Category: "Hijacked"},
		})
		require.NoError(t, err)

		got, err := store.GetTransactionsByMonth(ctx, "owner", date(2024, 3, 1))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Category)
	})

	t.Run("empty set is a noop", func(t *testing.T) {
		store := createTestStorage(t)
		require.NoError(t, store.UpdateTransactionCategories(ctx, "u1", nil))
	})
}

func TestMonthValidation(t *testing.T) {
	store := createTestStorage(t)
	_, err := store.GetTransactionsByMonth(context.Background(), "u1", time.Time{})
	require.ErrorIs(t, err, ErrInvalidMonth)
}
