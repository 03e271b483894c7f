package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/tui"
)

func importCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stage, review and commit expense files",
		Long: `Bulk expense import runs in three steps:

  create  upload a CSV or OFX file as a draft batch
  parse   parse every row, guess vendor and category, flag duplicates
  commit  turn the reviewed lines into expenses

Between parse and commit, use lines, patch or review to fix guesses.`,
	}

	cmd.AddCommand(importCreateCmd(st))
	cmd.AddCommand(importParseCmd(st))
	cmd.AddCommand(importLinesCmd(st))
	cmd.AddCommand(importPatchCmd(st))
	cmd.AddCommand(importCommitCmd(st))
	cmd.AddCommand(importReviewCmd(st))

	return cmd
}

// withImporter opens storage, builds the importer and runs fn.
func (st *appState) withImporter(ctx context.Context, fn func(service.Storage, *expense.Importer) error) error {
	store, err := st.openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("Failed to close storage", "error", cerr)
		}
	}()

	im, err := st.newImporter(ctx, store)
	if err != nil {
		return err
	}
	return fn(store, im)
}

func importCreateCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Upload a file as a draft batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("type")
			parse, _ := cmd.Flags().GetBool("parse")

			batchType, err := batchTypeFor(explicit, args[0])
			if err != nil {
				return err
			}
			content, err := readBatchFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return st.withImporter(ctx, func(_ service.Storage, im *expense.Importer) error {
				id, err := im.CreateBatch(ctx, expense.CreateBatchRequest{
					Type:     batchType,
					Filename: args[0],
					Content:  content,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Created batch "+id))

				if !parse {
					return nil
				}
				summary, err := im.ParseBatch(ctx, id, expense.ParseOptions{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatParseSummary(id, summary))
				return nil
			})
		},
	}

	cmd.Flags().String("type", "", "batch format: csv or ofx (default: from file extension)")
	cmd.Flags().Bool("parse", false, "parse the batch right after creating it")

	return cmd
}

func importParseCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <batch-id>",
		Short: "Parse a draft batch into reviewable lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := expense.ParseOptions{Mapping: expense.DefaultMapping()}
			opts.Mapping.Date, _ = cmd.Flags().GetString("date-column")
			opts.Mapping.Description, _ = cmd.Flags().GetString("description-column")
			opts.Mapping.Amount, _ = cmd.Flags().GetString("amount-column")
			opts.Mapping.Currency, _ = cmd.Flags().GetString("currency-column")
			opts.Locale, _ = cmd.Flags().GetString("locale")
			opts.DefaultCurrency, _ = cmd.Flags().GetString("currency")

			ctx := cmd.Context()
			return st.withImporter(ctx, func(_ service.Storage, im *expense.Importer) error {
				summary, err := im.ParseBatch(ctx, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatParseSummary(args[0], summary))
				return nil
			})
		},
	}

	defaults := expense.DefaultMapping()
	cmd.Flags().String("date-column", defaults.Date, "CSV column holding the date")
	cmd.Flags().String("description-column", defaults.Description, "CSV column holding the description")
	cmd.Flags().String("amount-column", defaults.Amount, "CSV column holding the amount")
	cmd.Flags().String("currency-column", defaults.Currency, "CSV column holding the currency")
	cmd.Flags().String("locale", "", "locale for dates and amounts (default: import.locale)")
	cmd.Flags().String("currency", "", "currency for rows without one (default: import.default_currency)")

	return cmd
}

func formatParseSummary(batchID string, s *expense.ParseSummary) string {
	body := cli.RenderKeyValues([][2]string{
		{"Rows", strconv.Itoa(s.Rows)},
		{"Parsed", strconv.Itoa(s.Parsed)},
		{"Errors", strconv.Itoa(s.Errors)},
		{"Duplicates", strconv.Itoa(s.Duplicates)},
		{"Need review", strconv.Itoa(s.Uncertain)},
	})
	return cli.RenderBox("Batch "+batchID+" ready for review", body)
}

func importLinesCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines <batch-id>",
		Short: "List the lines of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uncertain, _ := cmd.Flags().GetBool("uncertain")

			ctx := cmd.Context()
			return st.withImporter(ctx, func(store service.Storage, im *expense.Importer) error {
				lines, err := im.ListLines(ctx, args[0], expense.ListOptions{UncertainOnly: uncertain})
				if err != nil {
					return err
				}
				if len(lines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No lines to show"))
					return nil
				}

				names, err := loadCatalogNames(ctx, store)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderLines(lines, names, im))
				return nil
			})
		},
	}

	cmd.Flags().Bool("uncertain", false, "show only lines below the review threshold")

	return cmd
}

// catalogNames resolves vendor and category ids for display.
type catalogNames struct {
	vendors    map[int64]string
	categories map[int64]string
	vendorList []model.Vendor
	catList    []model.Category
}

func loadCatalogNames(ctx context.Context, store service.CatalogStore) (*catalogNames, error) {
	vendors, err := store.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	names := &catalogNames{
		vendors:    make(map[int64]string, len(vendors)),
		categories: make(map[int64]string, len(categories)),
		vendorList: vendors,
		catList:    categories,
	}
	for _, v := range vendors {
		names.vendors[v.ID] = v.Name
	}
	for _, c := range categories {
		names.categories[c.ID] = c.Code
	}
	return names, nil
}

func (n *catalogNames) vendor(id *int64) string {
	if id == nil {
		return "-"
	}
	if name, ok := n.vendors[*id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func (n *catalogNames) category(id *int64) string {
	if id == nil {
		return "-"
	}
	if code, ok := n.categories[*id]; ok {
		return code
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func renderLines(lines []model.ImportLine, names *catalogNames, im *expense.Importer) string {
	rows := make([][]string, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		date, amount := l.RawDate, l.RawAmount
		if l.Parsed {
			date = l.Date.Format("2006-01-02")
			amount = expense.FormatMinor(l.AmountMinor)
		}
		rows = append(rows, []string{
			strconv.Itoa(l.RowNumber),
			l.ID,
			date,
			l.RawDescription,
			amount,
			names.vendor(l.EffectiveVendor()),
			names.category(l.EffectiveCategory()),
			cli.FormatConfidence(l.Confidence, im.ReviewThreshold()),
			lineState(l, im),
		})
	}
	return cli.RenderTable(
		[]string{"#", "Line", "Date", "Description", "Amount", "Vendor", "Category", "Confidence", "Status"},
		rows)
}

func lineState(l *model.ImportLine, im *expense.Importer) string {
	switch {
	case !l.Parsed:
		return "error: " + l.ParseError
	case l.IsDuplicate():
		return "duplicate of " + *l.DuplicateOf
	case l.Ignored:
		return "ignored"
	case im.NeedsReview(l):
		return "review"
	default:
		return "ok"
	}
}

func importPatchCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <line-id>",
		Short: "Correct the vendor or category of a line",
		Long: `Override the guessed vendor or category of one line, ignore it, or
attach a note. With --learn the correction is remembered as a vendor alias
so later imports match the same description.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vendorID, _ := cmd.Flags().GetInt64("vendor")
			categoryCode, _ := cmd.Flags().GetString("category")
			ignore, _ := cmd.Flags().GetBool("ignore")
			restore, _ := cmd.Flags().GetBool("restore")
			learn, _ := cmd.Flags().GetBool("learn")

			if ignore && restore {
				return common.NewUserError("--ignore and --restore are mutually exclusive", common.ErrInvalidConfig)
			}

			patch := expense.LinePatch{VendorID: int64Flag(vendorID), Learn: learn}
			if ignore || restore {
				patch.Ignore = &ignore
			}
			if cmd.Flags().Changed("note") {
				note, _ := cmd.Flags().GetString("note")
				patch.Note = &note
			}

			ctx := cmd.Context()
			return st.withImporter(ctx, func(store service.Storage, im *expense.Importer) error {
				if categoryCode != "" {
					category, err := store.GetCategoryByCode(ctx, categoryCode)
					if err != nil {
						return common.NewUserError(fmt.Sprintf("unknown category %q", categoryCode), err)
					}
					patch.CategoryID = &category.ID
				}

				res, err := im.PatchLine(ctx, args[0], patch)
				if err != nil {
					if errors.Is(err, expense.ErrNoVendor) {
						return common.NewUserError("--learn needs a vendor; pass --vendor", err)
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated row %d", res.Line.RowNumber)))
				if res.Learned != nil {
					switch {
					case res.Learned.AliasCreated:
						fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Learned alias %q", res.Learned.Alias)))
					default:
						fmt.Fprintln(out, cli.FormatInfo("Vendor already matches this description"))
					}
					if res.Learned.CategoryBackfilled {
						fmt.Fprintln(out, cli.FormatInfo("Set the vendor's default category"))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64("vendor", 0, "vendor id")
	cmd.Flags().String("category", "", "category code, e.g. INGREDIENTS")
	cmd.Flags().Bool("ignore", false, "leave the line out of the commit")
	cmd.Flags().Bool("restore", false, "include a previously ignored line again")
	cmd.Flags().String("note", "", "note stored with the expense")
	cmd.Flags().Bool("learn", false, "remember the description as an alias of the vendor")

	return cmd
}

func importCommitCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit <batch-id>",
		Short: "Create expenses from a reviewed batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			ctx := cmd.Context()
			return st.withImporter(ctx, func(_ service.Storage, im *expense.Importer) error {
				if !yes {
					lines, err := im.ListLines(ctx, args[0], expense.ListOptions{})
					if err != nil {
						return err
					}
					committable, uncertain := 0, 0
					for i := range lines {
						if lines[i].Committable() {
							committable++
							if im.NeedsReview(&lines[i]) {
								uncertain++
							}
						}
					}

					question := fmt.Sprintf("Commit %d expenses from batch %s?", committable, args[0])
					if uncertain > 0 {
						question = fmt.Sprintf("Commit %d expenses (%d still below the review threshold)?", committable, uncertain)
					}
					ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(ctx, question, uncertain == 0)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Commit canceled"))
						return nil
					}
				}

				summary, err := im.CommitBatch(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Committed %d expenses, skipped %d lines", summary.Created, summary.Skipped)))
				return nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "commit without asking")

	return cmd
}

func importReviewCmd(st *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "review <batch-id>",
		Short: "Review a batch interactively",
		Long: `Open the batch in a full-screen table. Accept guesses, ignore lines and
commit the batch without leaving the terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return st.withImporter(ctx, func(store service.Storage, im *expense.Importer) error {
				names, err := loadCatalogNames(ctx, store)
				if err != nil {
					return err
				}

				outcome, err := tui.RunReview(ctx, im, args[0], tui.WithCatalog(names.vendorList, names.catList))
				if err != nil {
					return err
				}

				switch {
				case outcome.Committed != nil:
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
						fmt.Sprintf("Committed %d expenses, skipped %d lines", outcome.Committed.Created, outcome.Committed.Skipped)))
				case outcome.Patched > 0:
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(
						fmt.Sprintf("Saved %d changes; batch %s is still in review", outcome.Patched, args[0])))
				}
				return nil
			})
		},
	}
}
