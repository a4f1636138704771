package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerwise/ledgerwise/internal/cli"
	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
)

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage month-specific budget overrides",
		Long: `Set or clear a category budget for a single month without touching the
category's global budget.`,
	}

	cmd.AddCommand(setOverrideCmd())
	cmd.AddCommand(clearOverrideCmd())

	return cmd
}

func setOverrideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <month> <budget>",
		Short: "Set a category's budget for one month",
		Long:  `Override the budget, e.g. "ledgerwise override set Groceries 2024-12 800.00". Setting the same month again replaces the value.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category := args[0]

			month, err := parseMonthArg(args[1])
			if err != nil {
				return err
			}
			budget, err := model.ParseMoney(args[2])
			if err != nil {
				return fmt.Errorf("invalid budget %q: %w", args[2], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetBudgetOverride(ctx, currentUser(), category, month, budget); err != nil {
				if errors.Is(err, common.ErrNegativeBudget) {
					return fmt.Errorf("budget cannot be negative")
				}
				return fmt.Errorf("failed to set override: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Budget for %q in %s set to %s", category, month.Format("2006-01"), budget)))
			return nil
		},
	}
}

func clearOverrideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <category> <month>",
		Short: "Remove a month override, restoring the global budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category := args[0]

			month, err := parseMonthArg(args[1])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearBudgetOverride(ctx, currentUser(), category, month); err != nil {
				return fmt.Errorf("failed to clear override: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Cleared override for %q in %s", category, month.Format("2006-01"))))
			return nil
		},
	}
}
