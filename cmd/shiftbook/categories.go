package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/service"
)

func categoriesCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show expense categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List expense categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return st.withStorage(ctx, func(store service.Storage) error {
				categories, err := store.ListCategories(ctx)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Code, c.Name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Code", "Name"}, rows))
				return nil
			})
		},
	})

	return cmd
}
