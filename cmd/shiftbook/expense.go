package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/service"
)

func expenseCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record expenses by hand",
	}
	cmd.AddCommand(expenseAddCmd(st))
	return cmd
}

func expenseAddCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record a single expense",
		Long: `Record one expense. Vendor and category are guessed from the description
unless given. A probable duplicate of an existing expense is reported and
not stored; pass --force to store it anyway.

Examples:
  shiftbook expense add "Metro Cash & Carry" 1.250.000
  shiftbook expense add "Ice delivery" 300000 --date 02/05/2024 --category SUPPLIES`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateRaw, _ := cmd.Flags().GetString("date")
			vendorID, _ := cmd.Flags().GetInt64("vendor")
			categoryCode, _ := cmd.Flags().GetString("category")
			currency, _ := cmd.Flags().GetString("currency")
			note, _ := cmd.Flags().GetString("note")
			force, _ := cmd.Flags().GetBool("force")

			locale := st.cfg.Import.Locale
			amount, err := parseAmountArg(args[1], locale)
			if err != nil {
				return err
			}

			var date time.Time
			if dateRaw == "" {
				calc, err := st.cfg.ShiftCalculator()
				if err != nil {
					return err
				}
				date = calc.WindowFor(time.Now()).Date
			} else {
				date, err = expense.ParseDate(dateRaw, locale)
				if err != nil {
					return common.NewUserError(fmt.Sprintf("invalid date %q", dateRaw), err)
				}
			}

			entry := expense.ManualEntry{
				Date:        date,
				Description: args[0],
				AmountMinor: amount,
				Currency:    currency,
				Note:        note,
				VendorID:    int64Flag(vendorID),
				Force:       force,
			}

			ctx := cmd.Context()
			return st.withImporter(ctx, func(store service.Storage, im *expense.Importer) error {
				if categoryCode != "" {
					category, err := store.GetCategoryByCode(ctx, categoryCode)
					if err != nil {
						return common.NewUserError(fmt.Sprintf("unknown category %q", categoryCode), err)
					}
					entry.CategoryID = &category.ID
				}

				res, err := im.RecordManual(ctx, entry)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if res.Expense == nil {
					dup := res.Duplicate
					fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf(
						"Looks like a duplicate of %s (%s, %s %s); not recorded. Use --force to record it anyway.",
						dup.ID, dup.Date.Format("2006-01-02"), expense.FormatMinor(dup.AmountMinor), dup.Description)))
					return nil
				}

				names, err := loadCatalogNames(ctx, store)
				if err != nil {
					return err
				}
				exp := res.Expense
				fmt.Fprintln(out, cli.RenderBox("Expense recorded", cli.RenderKeyValues([][2]string{
					{"ID", exp.ID},
					{"Date", exp.Date.Format("2006-01-02")},
					{"Amount", expense.FormatMinor(exp.AmountMinor) + " " + exp.Currency},
					{"Vendor", names.vendor(exp.VendorID)},
					{"Category", names.category(exp.CategoryID)},
					{"Confidence", cli.FormatConfidence(res.Categorization.Confidence, im.ReviewThreshold())},
				})))
				return nil
			})
		},
	}

	cmd.Flags().String("date", "", "expense date (default: current shift date)")
	cmd.Flags().Int64("vendor", 0, "vendor id")
	cmd.Flags().String("category", "", "category code, e.g. INGREDIENTS")
	cmd.Flags().String("currency", "", "currency code (default: import.default_currency)")
	cmd.Flags().String("note", "", "free-form note")
	cmd.Flags().Bool("force", false, "record even when it looks like a duplicate")

	return cmd
}
