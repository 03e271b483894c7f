// Package dedupe finds committed expenses that a new entry probably repeats.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/textmatch"
)

// Default tolerances.
const (
	DefaultAmountTolerance     int64   = 100
	DefaultDayTolerance                = 2
	DefaultSimilarityThreshold float64 = 0.7
)

// Config holds the matching tolerances.
type Config struct {
	// AmountTolerance is the allowed absolute difference in minor units.
	AmountTolerance int64
	// DayTolerance is the allowed distance in calendar days.
	DayTolerance int
	// SimilarityThreshold is the minimum description similarity, inclusive.
	SimilarityThreshold float64
}

// DefaultConfig returns the default tolerances.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:     DefaultAmountTolerance,
		DayTolerance:        DefaultDayTolerance,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Detector looks up likely duplicates among committed expenses.
type Detector struct {
	store  service.ExpenseStore
	logger *slog.Logger
	cfg    Config
}

// NewDetector creates a detector. Negative tolerances are treated as zero and
// the threshold is capped at 1 so an identical expense always matches.
func NewDetector(store service.ExpenseStore, cfg Config) *Detector {
	if cfg.AmountTolerance < 0 {
		cfg.AmountTolerance = 0
	}
	if cfg.DayTolerance < 0 {
		cfg.DayTolerance = 0
	}
	if cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = 1
	}
	return &Detector{
		store:  store,
		cfg:    cfg,
		logger: slog.Default().With("component", "dedupe"),
	}
}

// Match is a candidate duplicate and how closely it matched.
type Match struct {
	Expense    model.Expense
	Similarity float64
	AmountDiff int64
	DayDiff    int
}

// FindDuplicate returns the best matching expense or nil when none qualifies.
// The best match has the highest similarity; ties go to the closest amount,
// then the closest date.
func (d *Detector) FindDuplicate(ctx context.Context, amountMinor int64, date time.Time, description string) (*model.Expense, error) {
	match, err := d.BestMatch(ctx, amountMinor, date, description)
	if err != nil || match == nil {
		return nil, err
	}
	return &match.Expense, nil
}

// BestMatch is FindDuplicate with the match scores attached.
func (d *Detector) BestMatch(ctx context.Context, amountMinor int64, date time.Time, description string) (*Match, error) {
	day := civilDay(date)
	candidates, err := d.store.FindExpenseCandidates(ctx,
		service.AmountRange{
			Min: amountMinor - d.cfg.AmountTolerance,
			Max: amountMinor + d.cfg.AmountTolerance,
		},
		service.DateRange{
			Start: day.AddDate(0, 0, -d.cfg.DayTolerance),
			End:   day.AddDate(0, 0, d.cfg.DayTolerance),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate candidates: %w", err)
	}

	var best *Match
	for _, candidate := range candidates {
		m := Match{
			Expense:    candidate,
			Similarity: textmatch.NormalizedSimilarity(description, candidate.Description),
			AmountDiff: abs64(candidate.AmountMinor - amountMinor),
			DayDiff:    dayDistance(day, civilDay(candidate.Date)),
		}
		if m.Similarity < d.cfg.SimilarityThreshold {
			continue
		}
		if best == nil || better(m, *best) {
			best = &m
		}
	}

	if best != nil {
		d.logger.Debug("duplicate candidate found",
			"expense_id", best.Expense.ID,
			"similarity", best.Similarity,
			"amount_diff", best.AmountDiff,
			"day_diff", best.DayDiff)
	}
	return best, nil
}

func better(a, b Match) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.AmountDiff != b.AmountDiff {
		return a.AmountDiff < b.AmountDiff
	}
	return a.DayDiff < b.DayDiff
}

// civilDay drops the clock so dates compare by calendar day as written.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayDistance(a, b time.Time) int {
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
