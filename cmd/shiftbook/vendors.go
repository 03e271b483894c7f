package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/categorize"
	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
)

func vendorsCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage vendors and their aliases",
		Long: `Vendors are matched against expense descriptions through their aliases.
A vendor's default category becomes the category guess for its expenses.`,
	}

	cmd.AddCommand(vendorsListCmd(st))
	cmd.AddCommand(vendorsAddCmd(st))
	cmd.AddCommand(vendorsAliasCmd(st))

	return cmd
}

// withStorage opens storage and runs fn.
func (st *appState) withStorage(ctx context.Context, fn func(service.Storage) error) error {
	store, err := st.openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("Failed to close storage", "error", cerr)
		}
	}()
	return fn(store)
}

func vendorsListCmd(st *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vendors with their aliases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return st.withStorage(ctx, func(store service.Storage) error {
				snapshot, err := categorize.LoadSnapshot(ctx, store)
				if err != nil {
					return err
				}
				vendors, err := store.ListVendors(ctx)
				if err != nil {
					return err
				}
				if len(vendors) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No vendors yet. Add one with: shiftbook vendors add <name>"))
					return nil
				}

				rows := make([][]string, 0, len(vendors))
				for _, v := range vendors {
					category := "-"
					if v.DefaultCategoryID != nil {
						if c, ok := snapshot.Category(*v.DefaultCategoryID); ok {
							category = c.Code
						}
					}
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.Name,
						category,
						strings.Join(snapshot.Aliases(v.ID), ", "),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Vendor", "Category", "Aliases"}, rows))
				return nil
			})
		},
	}
}

func vendorsAddCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryCode, _ := cmd.Flags().GetString("category")
			aliases, _ := cmd.Flags().GetStringSlice("alias")

			ctx := cmd.Context()
			return st.withStorage(ctx, func(store service.Storage) error {
				vendor := &model.Vendor{Name: strings.TrimSpace(args[0])}
				if categoryCode != "" {
					category, err := store.GetCategoryByCode(ctx, categoryCode)
					if err != nil {
						return common.NewUserError(fmt.Sprintf("unknown category %q", categoryCode), err)
					}
					vendor.DefaultCategoryID = &category.ID
				}

				tx, err := store.BeginTx(ctx)
				if err != nil {
					return err
				}
				if err := addVendor(ctx, tx, vendor, aliases); err != nil {
					_ = tx.Rollback()
					return err
				}
				if err := tx.Commit(); err != nil {
					return fmt.Errorf("failed to commit vendor: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added vendor %d %q", vendor.ID, vendor.Name)))
				return nil
			})
		},
	}

	cmd.Flags().String("category", "", "default category code")
	cmd.Flags().StringSlice("alias", nil, "alias to match in descriptions (repeatable)")

	return cmd
}

func addVendor(ctx context.Context, tx service.Transaction, vendor *model.Vendor, aliases []string) error {
	if err := tx.CreateVendor(ctx, vendor); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return common.NewUserError(fmt.Sprintf("vendor %q already exists", vendor.Name), err)
		}
		return err
	}
	for _, alias := range aliases {
		if err := tx.InsertVendorAlias(ctx, &model.VendorAlias{VendorID: vendor.ID, Alias: alias}); err != nil {
			return err
		}
	}
	return nil
}

func vendorsAliasCmd(st *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "alias <vendor-id> <alias>",
		Short: "Add an alias to a vendor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vendorID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("invalid vendor id %q", args[0]), err)
			}

			ctx := cmd.Context()
			return st.withStorage(ctx, func(store service.Storage) error {
				vendor, err := store.GetVendor(ctx, vendorID)
				if err != nil {
					return err
				}
				if err := store.InsertVendorAlias(ctx, &model.VendorAlias{VendorID: vendor.ID, Alias: args[1]}); err != nil {
					if errors.Is(err, common.ErrDuplicateEntry) {
						return common.NewUserError(fmt.Sprintf("alias %q is already taken", args[1]), err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%q now matches %s", args[1], vendor.Name)))
				return nil
			})
		},
	}
}
