package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerwise/ledgerwise/internal/cli"
	"github.com/ledgerwise/ledgerwise/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Inspect imported transactions",
	}

	cmd.AddCommand(listTransactionsCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <month>",
		Short: "List a month's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.GetTransactionsByMonth(ctx, currentUser(), month)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf(
					"No transactions in %s", month.Format("2006-01"))))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf(
				"Transactions for %s", month.Format("January 2006"))))
			printTransactions(txns)
			return nil
		},
	}
}

func printTransactions(txns []model.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Date"),
		cli.TableHeaderStyle.Render("Detail"),
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Amount"))
	for _, tx := range txns {
		category := tx.Category
		if tx.Orphaned() {
			category = cli.SubtleStyle.Render("(unclassified)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			tx.Date.Format("2006-01-02"), tx.Detail, category, tx.Amount)
	}
}
