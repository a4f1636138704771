package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerwise/ledgerwise/internal/cli"
	"github.com/ledgerwise/ledgerwise/internal/reconcile"
)

func reallocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reallocate <month>",
		Short: "Re-run classification over a whole month",
		Long: `Reclassify every transaction in the month against the current category
set, e.g. after adding categories that better fit existing spending.
Nothing changes unless the whole month succeeds.`,
		Args: cobra.ExactArgs(1),
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

			reclassifier, err := initReclassifier()
			if err != nil {
				return err
			}

			rec := reconcile.NewReconciler(store, reclassifier, nil)
			txns, err := rec.ReallocateMonth(ctx, currentUser(), month)
			if err != nil {
				return err
			}

			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf(
					"No transactions in %s, nothing to do", month.Format("2006-01"))))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Reallocated %d transaction(s) in %s", len(txns), month.Format("2006-01"))))
			printTransactions(txns)
			return nil
		},
	}
}
