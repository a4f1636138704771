package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ledgerwise/ledgerwise/internal/cli"
	"github.com/ledgerwise/ledgerwise/internal/importer"
	"github.com/ledgerwise/ledgerwise/internal/ofx"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [files...]",
		Short: "Import statement files",
		Long: `Import bank statement files and classify the new transactions.
CSV statements and OFX/QFX exports are both supported, chosen by extension.

Examples:
  ledgerwise import ~/Downloads/statement_march.csv
  ledgerwise import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("no files match pattern", "pattern", pattern)
			}
		} else {
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reclassifier, err := initReclassifier()
	if err != nil {
		return err
	}
	imp := importer.NewImporter(store, reclassifier, nil)
	parser := ofx.NewParser(nil)
	user := currentUser()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing statements..."),
		progressbar.OptionClearOnFinish(),
	)

	var imported, classified int
	var degraded bool
	for _, path := range files {
		report, err := importFile(ctx, imp, parser, user, path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
		}
		imported += report.Imported
		classified += report.Classified
		if report.Degraded {
			degraded = true
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if degraded {
		fmt.Println(cli.FormatWarning(fmt.Sprintf(
			"Imported %d transaction(s), but some could not be classified; they remain unassigned", imported)))
		return nil
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d transaction(s), classified %d", imported, classified)))
	return nil
}

func importFile(ctx context.Context, imp *importer.Importer, parser *ofx.Parser, user, path string) (*importer.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		txns, err := parser.Parse(ctx, f)
		if err != nil {
			return nil, err
		}
		return imp.Import(ctx, user, txns)
	default:
		return imp.ImportCSV(ctx, user, f)
	}
}
