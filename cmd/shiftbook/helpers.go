package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/shiftbook/internal/categorize"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/dedupe"
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/shift"
	"github.com/Veraticus/shiftbook/internal/storage"
)

// openStorage opens the configured database and brings its schema up to date.
func (st *appState) openStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(st.cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newEngine builds a categorization engine with a freshly loaded catalog.
func (st *appState) newEngine(ctx context.Context, store service.CatalogStore) (*categorize.Engine, error) {
	rules, err := categorize.LoadRules(st.cfg.Categorize.RulesFile)
	if err != nil {
		return nil, err
	}

	engine := categorize.NewEngine(store, rules)
	if err := engine.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return engine, nil
}

// newImporter wires the importer to the store, categorizer and duplicate detector.
func (st *appState) newImporter(ctx context.Context, store service.Storage) (*expense.Importer, error) {
	engine, err := st.newEngine(ctx, store)
	if err != nil {
		return nil, err
	}
	detector := dedupe.NewDetector(store, st.cfg.DedupeConfig())
	return expense.NewImporter(store, engine, detector, st.cfg.ImportConfig()), nil
}

// batchTypeFor picks the batch type from an explicit flag or the file extension.
func batchTypeFor(explicit, path string) (model.BatchType, error) {
	if explicit != "" {
		return model.BatchType(strings.ToLower(explicit)), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return model.BatchTypeCSV, nil
	case ".ofx", ".qfx":
		return model.BatchTypeOFX, nil
	default:
		return "", common.NewUserError(
			fmt.Sprintf("cannot tell the format of %s; pass --type csv or --type ofx", path),
			common.ErrUnsupportedFormat)
	}
}

// readBatchFile returns the file content encoded for CreateBatch.
func readBatchFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the command line
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// parseAmountArg parses an amount typed on the command line into minor units.
func parseAmountArg(raw, locale string) (int64, error) {
	d, err := expense.ParseAmount(raw, locale)
	if err != nil {
		return 0, common.NewUserError(fmt.Sprintf("invalid amount %q", raw), err)
	}
	return expense.ToMinorUnits(d), nil
}

// syncWindow resolves the ingestion window from the command flags. A shift
// date selects that shift; otherwise start and end are RFC3339 instants or
// shift dates. With nothing set, the current shift is used.
func syncWindow(calc *shift.Calculator, shiftDate, start, end string, now time.Time) (time.Time, time.Time, error) {
	if shiftDate != "" {
		if start != "" || end != "" {
			return time.Time{}, time.Time{}, common.NewUserError("--shift cannot be combined with --start or --end", common.ErrInvalidConfig)
		}
		w, err := calc.ParseDate(shiftDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return w.Start, w.End, nil
	}

	if start == "" && end == "" {
		w := calc.WindowFor(now)
		return w.Start, w.End, nil
	}

	from, err := parseInstant(calc, start, now, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseInstant(calc, end, now, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, common.NewUserError("--start must be before --end", common.ErrInvalidConfig)
	}
	return from, to, nil
}

// parseInstant accepts RFC3339 or a shift date. A shift date means the start
// of that shift for the lower bound and its end for the upper bound.
func parseInstant(calc *shift.Calculator, raw string, now time.Time, lower bool) (time.Time, error) {
	if raw == "" {
		if lower {
			return calc.WindowFor(now).Start, nil
		}
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	w, err := calc.ParseDate(raw)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid time %q: use RFC3339 or YYYY-MM-DD", raw), err)
	}
	if lower {
		return w.Start, nil
	}
	return w.End, nil
}

func int64Flag(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}
