package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/reconcile"
	"github.com/Veraticus/shiftbook/internal/service"
)

func reconcileCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile the cash drawer for a shift",
		Long: `Compare the cash counted at the end of a shift with what the drawer should
hold: starting float plus cash sales minus expenses paid out.

Cash sales come from the receipts stored by sync; expenses are those recorded
for the shift date.

Example:
  shiftbook reconcile --shift 2024-05-02 --starting-cash 2.000.000 --counted 5.430.000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shiftDate, _ := cmd.Flags().GetString("shift")
			startingRaw, _ := cmd.Flags().GetString("starting-cash")
			countedRaw, _ := cmd.Flags().GetString("counted")
			floatRaw, _ := cmd.Flags().GetString("next-float")

			locale := st.cfg.Import.Locale
			starting, err := parseAmountArg(startingRaw, locale)
			if err != nil {
				return err
			}
			counted, err := parseAmountArg(countedRaw, locale)
			if err != nil {
				return err
			}
			var nextFloat int64
			if floatRaw != "" {
				if nextFloat, err = parseAmountArg(floatRaw, locale); err != nil {
					return err
				}
			}

			calc, err := st.cfg.ShiftCalculator()
			if err != nil {
				return err
			}
			window := calc.WindowFor(time.Now())
			if shiftDate != "" {
				if window, err = calc.ParseDate(shiftDate); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			store, err := st.openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("Failed to close storage", "error", cerr)
				}
			}()

			receipts, err := store.ListReceiptsByShift(ctx, window.Date)
			if err != nil {
				return err
			}
			expenses, err := store.ListExpensesByDate(ctx, service.DateRange{Start: window.Date, End: window.Date})
			if err != nil {
				return err
			}

			summary := reconcile.SummarizeShift(receipts)
			totalExpenses := reconcile.SumExpenses(expenses)
			result := reconcile.NewCalculator(st.cfg.Cash.Tolerance).Reconcile(reconcile.Input{
				StartingCash:       starting,
				CashSales:          summary.CashSales,
				TotalExpenses:      totalExpenses,
				ClosingCashCounted: counted,
			})

			pairs := [][2]string{
				{"Shift", window.DateString()},
				{"Window", window.Start.Format("2006-01-02 15:04") + " to " + window.End.Format("2006-01-02 15:04 MST")},
				{"Receipts", fmt.Sprintf("%d (%d refunds)", summary.Receipts, summary.Refunds)},
				{"Gross sales", expense.FormatMinor(summary.GrossSales)},
				{"Discounts", expense.FormatMinor(summary.Discounts)},
				{"Cash sales", expense.FormatMinor(summary.CashSales)},
				{"Expenses", fmt.Sprintf("%s (%s entries)", expense.FormatMinor(totalExpenses), strconv.Itoa(len(expenses)))},
				{"Starting cash", expense.FormatMinor(starting)},
				{"Expected cash", expense.FormatMinor(result.ExpectedCash)},
				{"Counted", expense.FormatMinor(counted)},
				{"Variance", formatVariance(result.Variance)},
			}
			if floatRaw != "" {
				pairs = append(pairs, [2]string{"Cash to bank", expense.FormatMinor(reconcile.CashBanked(counted, nextFloat))})
			}

			title := cli.FormatSuccess("Balanced")
			if !result.IsBalanced {
				title = cli.FormatError("Out of balance")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Shift "+window.DateString()+": "+title, cli.RenderKeyValues(pairs)))
			return nil
		},
	}

	cmd.Flags().String("shift", "", "shift date (default: current shift)")
	cmd.Flags().String("starting-cash", "0", "cash in the drawer when the shift opened")
	cmd.Flags().String("counted", "", "cash counted at close")
	cmd.Flags().String("next-float", "", "float left in the drawer for the next shift")
	_ = cmd.MarkFlagRequired("counted")

	return cmd
}

func formatVariance(v int64) string {
	switch {
	case v > 0:
		return "+" + expense.FormatMinor(v) + " over"
	case v < 0:
		return expense.FormatMinor(v) + " short"
	default:
		return "0"
	}
}
