// Package engine implements the batch reclassification pipeline: entries are
// partitioned into fixed-size batches, each batch is sent to the classifier
// with a structured prompt, and the strict-JSON results are aggregated with
// pacing between batches to respect external rate limits.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/llm"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/service"
)

const (
	// DefaultBatchSize matches the upstream classifier's comfortable prompt size.
	DefaultBatchSize = 10
	// MaxBatchSize caps a single prompt's entry count.
	MaxBatchSize = 50
	// DefaultBatchDelay paces consecutive classifier calls.
	DefaultBatchDelay = 1500 * time.Millisecond
)

// Reclassifier assigns categories to entries via the classifier adapter.
type Reclassifier struct {
	client     llm.Client
	logger     *slog.Logger
	batchSize  int
	batchDelay time.Duration
}

// Option configures a Reclassifier.
type Option func(*Reclassifier)

// WithBatchSize sets the per-prompt entry count, clamped to [1, MaxBatchSize].
func WithBatchSize(n int) Option {
	return func(r *Reclassifier) {
		switch {
		case n < 1:
			r.batchSize = DefaultBatchSize
		case n > MaxBatchSize:
			r.batchSize = MaxBatchSize
		default:
			r.batchSize = n
		}
	}
}

// WithBatchDelay sets the pacing delay inserted between batches.
func WithBatchDelay(d time.Duration) Option {
	return func(r *Reclassifier) {
		if d >= 0 {
			r.batchDelay = d
		}
	}
}

// NewReclassifier creates a reclassifier backed by the given classifier client.
func NewReclassifier(client llm.Client, logger *slog.Logger, opts ...Option) *Reclassifier {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reclassifier{
		client:     client,
		logger:     logger,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// promptEntry is the shape embedded into the classification prompt.
type promptEntry struct {
	ID     int64  `json:"id"`
	Detail string `json:"detail"`
}

// Reclassify partitions entries into consecutive batches, prompts the
// classifier once per batch, and returns the aggregated verdicts.
//
// An empty or unparsable classifier response fails the whole operation;
// batches are never silently skipped. Zero entries return immediately with no
// network calls. Returned categories are passed through as-is: validation and
// fallback substitution belong to the persistence layer.
func (r *Reclassifier) Reclassify(ctx context.Context, categories []string, entries []service.Entry) ([]model.Reclassification, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no valid categories to classify against")
	}

	var results []model.Reclassification
	batches := (len(entries) + r.batchSize - 1) / r.batchSize

	for i := 0; i < len(entries); i += r.batchSize {
		end := i + r.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[i:end]
		batchNum := i/r.batchSize + 1

		prompt, err := buildPrompt(categories, batch)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("classifying batch",
			"batch", batchNum,
			"batches", batches,
			"entries", len(batch))

		response, err := r.client.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d/%d: %v", common.ErrReclassificationFailed, batchNum, batches, err)
		}

		parsed, err := parseReclassifications(response)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", batchNum, batches, err)
		}
		results = append(results, parsed...)

		// Pace the external endpoint; no delay after the final batch.
		if end < len(entries) && r.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.batchDelay):
			}
		}
	}

	r.logger.Info("reclassification complete",
		"entries", len(entries),
		"results", len(results),
		"batches", batches)

	return results, nil
}

// buildPrompt renders the per-batch classification prompt: the category set,
// the entries as JSON, and the instruction to answer with nothing but a JSON
// array of {id, category} objects.
func buildPrompt(categories []string, batch []service.Entry) (string, error) {
	entries := make([]promptEntry, len(batch))
	for i, e := range batch {
		entries[i] = promptEntry{ID: e.ID, Detail: e.Detail}
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode entries: %w", err)
	}

	return fmt.Sprintf(`Assign each transaction to one of these categories: %s. If a transaction does not adequately fit into a category, assign it %q.
Transactions: %s
Return ONLY a JSON array: [{"id": 1, "category": "Food"}]`,
		strings.Join(categories, ", "),
		model.ReservedCategory,
		encoded), nil
}

// parseReclassifications parses the classifier's text strictly as a JSON
// array of verdicts. Markdown code fences are tolerated; anything else that
// fails to parse is a hard error rather than a silent skip.
func parseReclassifications(response string) ([]model.Reclassification, error) {
	cleaned := stripCodeFence(response)

	var parsed []model.Reclassification
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return parsed, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// often add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
