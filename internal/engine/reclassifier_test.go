package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/service"
)

func testReclassifier(client *MockClient, opts ...Option) *Reclassifier {
	opts = append([]Option{WithBatchDelay(0)}, opts...)
	return NewReclassifier(client, slog.Default(), opts...)
}

func makeEntries(n int) []service.Entry {
	entries := make([]service.Entry, n)
	for i := range entries {
		entries[i] = service.Entry{ID: int64(i + 1), Detail: fmt.Sprintf("VENDOR %d", i+1)}
	}
	return entries
}

func TestReclassifyEmptyEntriesMakesNoCalls(t *testing.T) {
	client := NewMockClient()
	r := testReclassifier(client)

	results, err := r.Reclassify(context.Background(), []string{"Groceries", "Other"}, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, client.Calls())
}

func TestReclassifyBatchCount(t *testing.T) {
	tests := []struct {
		name      string
		entries   int
		batchSize int
		wantCalls int
	}{
		{name: "single partial batch", entries: 3, batchSize: 10, wantCalls: 1},
		{name: "exact multiple", entries: 20, batchSize: 10, wantCalls: 2},
		{name: "remainder batch", entries: 25, batchSize: 10, wantCalls: 3},
		{name: "one entry", entries: 1, batchSize: 10, wantCalls: 1},
		{name: "batch of one", entries: 4, batchSize: 1, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockClient()
			r := testReclassifier(client, WithBatchSize(tt.batchSize))

			results, err := r.Reclassify(context.Background(), []string{"Groceries", "Other"}, makeEntries(tt.entries))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, client.Calls())

			// Every input entry has an id-matching verdict
			byID := make(map[int64]bool)
			for _, res := range results {
				byID[res.ID] = true
			}
			for i := 1; i <= tt.entries; i++ {
				assert.True(t, byID[int64(i)], "missing verdict for entry %d", i)
			}
		})
	}
}

func TestReclassifyPromptContents(t *testing.T) {
	client := NewMockClient()
	r := testReclassifier(client)

	_, err := r.Reclassify(context.Background(), []string{"Groceries", "Dining", "Other"}, []service.Entry{
		{ID: 7, Detail: "WALMART SUPERCENTER"},
	})
	require.NoError(t, err)
	require.Len(t, client.Prompts, 1)

	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "Groceries, Dining, Other")
	assert.Contains(t, prompt, `"Other"`)
	assert.Contains(t, prompt, `{"id":7,"detail":"WALMART SUPERCENTER"}`)
	assert.Contains(t, prompt, "Return ONLY a JSON array")
}

func TestReclassifyEmptyResponseFailsHard(t *testing.T) {
	client := NewMockClient()
	client.Fail(common.ErrEmptyResponse)
	r := testReclassifier(client)

	_, err := r.Reclassify(context.Background(), []string{"Other"}, makeEntries(2))
	require.ErrorIs(t, err, common.ErrReclassificationFailed)
}

func TestReclassifyMalformedJSONFailsHard(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "prose", response: "Sure! Here are the categories you asked for."},
		{name: "object not array", response: `{"id": 1, "category": "Groceries"}`},
		{name: "truncated", response: `[{"id": 1, "cate`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockClient()
			client.QueueResponse(tt.response)
			r := testReclassifier(client)

			_, err := r.Reclassify(context.Background(), []string{"Other"}, makeEntries(1))
			require.ErrorIs(t, err, common.ErrMalformedResponse)
		})
	}
}

func TestReclassifyToleratesMarkdownFence(t *testing.T) {
	client := NewMockClient()
	client.QueueResponse("```json\n[{\"id\": 1, \"category\": \"Groceries\"}]\n```")
	r := testReclassifier(client)

	results, err := r.Reclassify(context.Background(), []string{"Groceries", "Other"}, makeEntries(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Groceries", results[0].Category)
}

func TestReclassifyNullCategoryPassesThroughEmpty(t *testing.T) {
	client := NewMockClient()
	client.QueueResponse(`[{"id":1,"category":"Groceries"},{"id":2,"category":null}]`)
	r := testReclassifier(client)

	results, err := r.Reclassify(context.Background(), []string{"Groceries", "Other"}, makeEntries(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Fallback substitution is the persistence layer's job, not the engine's
	assert.Equal(t, "", results[1].Category)
}

func TestReclassifyAggregatesAcrossBatches(t *testing.T) {
	client := NewMockClient()
	client.QueueResponse(`[{"id":1,"category":"A"},{"id":2,"category":"B"}]`)
	client.QueueResponse(`[{"id":3,"category":"C"}]`)
	r := testReclassifier(client, WithBatchSize(2))

	results, err := r.Reclassify(context.Background(), []string{"A", "B", "C", "Other"}, makeEntries(3))
	require.NoError(t, err)
	assert.Equal(t, []model.Reclassification{
		{ID: 1, Category: "A"},
		{ID: 2, Category: "B"},
		{ID: 3, Category: "C"},
	}, results)
}

func TestReclassifySecondBatchFailureDropsEverything(t *testing.T) {
	client := NewMockClient()
	client.QueueResponse(`[{"id":1,"category":"A"},{"id":2,"category":"A"}]`)
	client.QueueResponse("not json")
	r := testReclassifier(client, WithBatchSize(2))

	results, err := r.Reclassify(context.Background(), []string{"A", "Other"}, makeEntries(4))
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestReclassifyNoCategories(t *testing.T) {
	client := NewMockClient()
	r := testReclassifier(client)

	_, err := r.Reclassify(context.Background(), nil, makeEntries(1))
	require.Error(t, err)
	assert.Zero(t, client.Calls())
}

func TestReclassifyContextCancellationBetweenBatches(t *testing.T) {
	client := NewMockClient()
	r := NewReclassifier(client, slog.Default(), WithBatchSize(1), WithBatchDelay(DefaultBatchDelay))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reclassify(ctx, []string{"Other"}, makeEntries(2))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.Calls())
}

func TestBatchSizeClamping(t *testing.T) {
	r := NewReclassifier(NewMockClient(), nil, WithBatchSize(500))
	assert.Equal(t, MaxBatchSize, r.batchSize)

	r = NewReclassifier(NewMockClient(), nil, WithBatchSize(-3))
	assert.Equal(t, DefaultBatchSize, r.batchSize)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[]`, stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("```\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("  []  "))
	assert.Equal(t, `[{"id":1}]`, stripCodeFence(`[{"id":1}]`))
}

func TestMockClientFailurePropagates(t *testing.T) {
	client := NewMockClient()
	sentinel := errors.New("boom")
	client.Fail(sentinel)

	_, err := client.Complete(context.Background(), "Transactions: []")
	require.ErrorIs(t, err, sentinel)
}
