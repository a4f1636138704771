package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/engine"
	"github.com/ledgerwise/ledgerwise/internal/llm"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/service"
	"github.com/ledgerwise/ledgerwise/internal/storage"
)

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledgerwise/ledgerwise.db"
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// initReclassifier builds the batch reclassifier from the configured
// classifier provider.
func initReclassifier() (service.Reclassifier, error) {
	client, err := llm.NewClient(llm.Config{
		Provider: viper.GetString("llm.provider"),
		APIKey:   viper.GetString("llm.api_key"),
		Model:    viper.GetString("llm.model"),
		BaseURL:  viper.GetString("llm.base_url"),
	})
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError("classifier is not configured; set llm.api_key in the config file or LEDGERWISE_LLM_API_KEY", err)
		}
		return nil, fmt.Errorf("failed to build classifier client: %w", err)
	}

	var opts []engine.Option
	if n := viper.GetInt("llm.batch_size"); n > 0 {
		opts = append(opts, engine.WithBatchSize(n))
	}
	if d := viper.GetDuration("llm.batch_delay"); d > 0 {
		opts = append(opts, engine.WithBatchDelay(d))
	}
	return engine.NewReclassifier(client, nil, opts...), nil
}

// currentUser returns the user scope for the invocation.
func currentUser() string {
	user := strings.TrimSpace(viper.GetString("user"))
	if user == "" {
		return "default"
	}
	return user
}

// expandPath expands $HOME, other environment variables, and a leading tilde.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// parseMonthArg parses a YYYY-MM (or YYYY-MM-DD) command argument.
func parseMonthArg(arg string) (time.Time, error) {
	month, err := model.ParseMonth(arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", arg)
	}
	return month, nil
}
