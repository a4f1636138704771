package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerwise/ledgerwise/internal/cli"
	"github.com/ledgerwise/ledgerwise/internal/common"
	"github.com/ledgerwise/ledgerwise/internal/model"
	"github.com/ledgerwise/ledgerwise/internal/reconcile"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage budget categories",
		Long:  `List, add, update, and delete the categories transactions are classified into.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var monthArg string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with their effective budgets",
		Long:  `Display each category and the budget in effect for a month, marking month-specific overrides.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			month := model.MonthOf(time.Now().UTC())
			if monthArg != "" {
				if month, err = parseMonthArg(monthArg); err != nil {
					return err
				}
			}

			budgets, err := store.GetEffectiveBudgets(ctx, currentUser(), month)
			if err != nil {
				return fmt.Errorf("failed to get budgets: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Budgets for %s", month.Format("January 2006"))))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Budget"),
				cli.TableHeaderStyle.Render(""))
			for _, b := range budgets {
				note := ""
				if b.IsOverride {
					note = cli.SubtleStyle.Render("(override)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Category, b.Budget, note)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&monthArg, "month", "", "month to show budgets for (YYYY-MM, default: current)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <budget>",
		Short: "Add a new category",
		Long:  `Create a category with a monthly budget, e.g. "ledgerwise categories add Groceries 500.00".`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			budget, err := model.ParseMoney(args[1])
			if err != nil {
				return fmt.Errorf("invalid budget %q: %w", args[1], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.CreateCategory(ctx, currentUser(), name, budget)
			if err != nil {
				if errors.Is(err, common.ErrDuplicateCategory) {
					return fmt.Errorf("category %q already exists", name)
				}
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q with budget %s", cat.Name, cat.Budget)))
			return nil
		},
	}
}

func updateCategoryCmd() *cobra.Command {
	var (
		rename    string
		budgetArg string
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Rename a category or change its budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			if rename == "" && budgetArg == "" {
				return fmt.Errorf("nothing to update: pass --rename and/or --budget")
			}

			var newBudget *model.Money
			if budgetArg != "" {
				budget, err := model.ParseMoney(budgetArg)
				if err != nil {
					return fmt.Errorf("invalid budget %q: %w", budgetArg, err)
				}
				newBudget = &budget
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UpdateCategory(ctx, currentUser(), name, rename, newBudget); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("category %q not found", name)
				}
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&rename, "rename", "", "new name for the category")
	cmd.Flags().StringVar(&budgetArg, "budget", "", "new monthly budget")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category and reassign its transactions",
		Long: `Delete a category. Its transactions are reassigned by the classifier;
if classification is unavailable they stay unassigned until the next import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reclassifier, err := initReclassifier()
			if err != nil {
				return err
			}

			rec := reconcile.NewReconciler(store, reclassifier, nil)
			report, err := rec.DeleteCategory(ctx, currentUser(), name)
			if err != nil {
				if errors.Is(err, common.ErrCannotDeleteReserved) {
					return fmt.Errorf("the %q category cannot be deleted", model.ReservedCategory)
				}
				return err
			}

			if report.Degraded {
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"Deleted category %q, but %d transaction(s) could not be reassigned: %v",
					name, report.Orphaned, report.ReclassifyErr)))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Deleted category %q, reassigned %d transaction(s)", name, report.Reclassified)))
			return nil
		},
	}
}
