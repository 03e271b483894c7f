package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/ingest"
	"github.com/Veraticus/shiftbook/internal/pos"
)

func syncCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull POS receipts into the ledger",
		Long: `Fetch receipts from the POS API and store the ones not seen before.
Each receipt is tagged with the business shift it belongs to.

Running sync twice over the same window stores nothing new.

Examples:
  # Current shift
  shiftbook sync

  # One past shift
  shiftbook sync --shift 2024-05-02

  # A range of shifts
  shiftbook sync --start 2024-05-01 --end 2024-05-07`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, st)
		},
	}

	cmd.Flags().String("shift", "", "shift date to sync (YYYY-MM-DD)")
	cmd.Flags().String("start", "", "window start (RFC3339 or shift date)")
	cmd.Flags().String("end", "", "window end (RFC3339 or shift date)")
	cmd.Flags().Bool("no-progress", false, "disable the progress spinner")

	return cmd
}

func runSync(cmd *cobra.Command, st *appState) error {
	shiftDate, _ := cmd.Flags().GetString("shift")
	startRaw, _ := cmd.Flags().GetString("start")
	endRaw, _ := cmd.Flags().GetString("end")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	calc, err := st.cfg.ShiftCalculator()
	if err != nil {
		return err
	}
	start, end, err := syncWindow(calc, shiftDate, startRaw, endRaw, time.Now())
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Sync", "Receipts stored so far are kept; run sync again to continue.")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	client, err := pos.NewClient(ctx, st.cfg.POSConfig())
	if err != nil {
		return err
	}

	store, err := st.openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("Failed to close storage", "error", cerr)
		}
	}()

	svc := ingest.NewService(client, store, calc)
	var progress *cli.SyncProgress
	if !noProgress {
		progress = cli.NewSyncProgress(cmd.ErrOrStderr())
		svc.OnPage = progress.Update
	}

	result, err := svc.Ingest(ctx, start, end)
	if progress != nil {
		progress.Finish()
	}
	if result != nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSyncSummary(result))
	}
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
