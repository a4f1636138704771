// Package importer ingests statement files, persists their transactions, and
// triggers classification of the newly imported rows.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/service"
)

// dateFormats are the statement date layouts accepted, tried in order.
var dateFormats = []string{"2006-01-02", "01/02/2006"}

// Importer persists parsed statement rows and classifies them.
type Importer struct {
	store        service.Storage
	reclassifier service.Reclassifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewImporter creates an importer.
func NewImporter(store service.Storage, reclassifier service.Reclassifier, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:        store,
		reclassifier: reclassifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Report describes an import outcome.
type Report struct {
	// ClassifyErr holds the absorbed classification failure when Degraded is set.
	ClassifyErr error
	// Imported is how many rows were persisted.
	Imported int
	// Skipped is how many CSV rows the payment filter dropped.
	Skipped int
	// Classified is how many imported rows received a category.
	Classified int
	// Degraded means rows were persisted but classification failed; they
	// remain unclassified until the next sweep.
	Degraded bool
}

// ImportCSV parses a statement CSV from reader and imports its rows.
//
// Columns are positional: date, detail, transaction amount, payment amount.
// Rows carrying a payment amount are the card-payment side of the ledger and
// are skipped; only rows with a transaction amount and no payment amount are
// spending.
func (i *Importer) ImportCSV(ctx context.Context, userID string, reader io.Reader) (*Report, error) {
	txns, skipped, err := parseCSV(reader)
	if err != nil {
		return nil, err
	}
	report, err := i.importTransactions(ctx, userID, txns)
	if report != nil {
		report.Skipped = skipped
	}
	return report, err
}

// Import persists already-parsed transactions and classifies them. The
// persistence step is all-or-nothing; classification that follows is
// best-effort and reported as a degraded success when it fails.
func (i *Importer) Import(ctx context.Context, userID string, txns []model.Transaction) (*Report, error) {
	return i.importTransactions(ctx, userID, txns)
}

func (i *Importer) importTransactions(ctx context.Context, userID string, txns []model.Transaction) (*Report, error) {
	report := &Report{}
	if len(txns) == 0 {
		return report, nil
	}

	if err := i.store.SaveTransactions(ctx, userID, txns); err != nil {
		return nil, fmt.Errorf("saving transactions: %w", err)
	}
	report.Imported = len(txns)

	budgets, err := i.store.GetEffectiveBudgets(ctx, userID, model.MonthOf(i.now().UTC()))
	if err != nil {
		return i.degrade(report, fmt.Errorf("fetching categories: %w", err)), nil
	}
	names := make([]string, len(budgets))
	for n, b := range budgets {
		names[n] = b.Category
	}

	entries := make([]service.Entry, len(txns))
	for n, tx := range txns {
		entries[n] = service.Entry{ID: tx.ID, Detail: tx.Detail}
	}

	reclassifications, err := i.reclassifier.Reclassify(ctx, names, entries)
	if err != nil {
		return i.degrade(report, err), nil
	}
	if len(reclassifications) > 0 {
		if err := i.store.UpdateTransactionCategories(ctx, userID, reclassifications); err != nil {
			return i.degrade(report, fmt.Errorf("applying classifications: %w", err)), nil
		}
		report.Classified = len(reclassifications)
	}

	i.logger.Info("import complete",
		"user", userID,
		"imported", report.Imported,
		"classified", report.Classified)
	return report, nil
}

func (i *Importer) degrade(report *Report, err error) *Report {
	report.Degraded = true
	report.ClassifyErr = fmt.Errorf("%w: %v", common.ErrReclassificationFailed, err)
	i.logger.Warn("rows imported but classification failed",
		"imported", report.Imported,
		"error", err)
	return report
}

// parseCSV reads positional statement rows, returning the spending
// transactions and how many rows the payment filter dropped.
func parseCSV(reader io.Reader) ([]model.Transaction, int, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var txns []model.Transaction
	var skipped int
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading csv: %w", err)
		}
		line++
		if len(record) < 4 {
			return nil, 0, fmt.Errorf("line %d: expected 4 columns, got %d", line, len(record))
		}

		transactionAmount := strings.TrimSpace(record[2])
		paymentAmount := strings.TrimSpace(record[3])
		if transactionAmount == "" || transactionAmount == "0" {
			skipped++
			continue
		}
		if paymentAmount != "" && paymentAmount != "0" {
			skipped++
			continue
		}

		date, err := parseDate(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := model.ParseMoney(transactionAmount)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		txns = append(txns, model.Transaction{
			Date:   date,
			Detail: strings.TrimSpace(record[1]),
			Amount: amount,
		})
	}
	return txns, skipped, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
