// Package ingest pulls receipts from the POS API into the receipt store,
// tagging each with its business shift.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/pos"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/shift"
)

// Result counts what happened to each fetched record.
type Result struct {
	Processed int
	Skipped   int
	Rejected  int
	Failed    int
	Pages     int
	Duration  time.Duration
}

// Total is the number of records seen.
func (r Result) Total() int {
	return r.Processed + r.Skipped + r.Rejected + r.Failed
}

// PageProgress is reported after each page is handled.
type PageProgress struct {
	Result
	Page     int
	Received int
}

// Service runs ingestion. Runs are strictly sequential: one page is held in
// memory at a time and the next request is issued only after it is stored.
type Service struct {
	fetcher pos.ReceiptFetcher
	store   service.ReceiptStore
	shifts  *shift.Calculator
	logger  *slog.Logger
	// OnPage, when set, is called after every page.
	OnPage func(PageProgress)
}

// NewService creates an ingestion service.
func NewService(fetcher pos.ReceiptFetcher, store service.ReceiptStore, shifts *shift.Calculator) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		shifts:  shifts,
		logger:  slog.Default().With("component", "ingest"),
	}
}

// Ingest fetches every receipt created in [start, end) and stores the new ones.
// Records already stored are skipped, so repeating a run is harmless. A failed
// upstream request stops the run; the counts so far are returned together with
// an error wrapping common.ErrUpstream. Cancelling ctx stops between pages.
func (s *Service) Ingest(ctx context.Context, start, end time.Time) (*Result, error) {
	began := time.Now()
	result := &Result{}
	defer func() { result.Duration = time.Since(began) }()

	if end.Before(start) {
		return result, fmt.Errorf("%w: window end %s before start %s",
			common.ErrInvalidConfig, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	s.logger.Info("starting receipt ingestion",
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339))

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.fetcher.FetchPage(ctx, pos.PageRequest{Start: start, End: end, Cursor: cursor})
		if err != nil {
			s.logger.Error("receipt page request failed",
				"page", result.Pages+1,
				"error", err)
			if !errors.Is(err, common.ErrUpstream) && !errors.Is(err, common.ErrUpstreamPayload) {
				err = fmt.Errorf("%w: %w", common.ErrUpstream, err)
			}
			return result, fmt.Errorf("ingestion stopped after %d pages: %w", result.Pages, err)
		}
		result.Pages++

		for _, raw := range page.Receipts {
			s.ingestOne(ctx, raw, result)
		}

		if s.OnPage != nil {
			s.OnPage(PageProgress{Result: *result, Page: result.Pages, Received: len(page.Receipts)})
		}

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	s.logger.Info("receipt ingestion finished",
		"pages", result.Pages,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"rejected", result.Rejected,
		"failed", result.Failed)
	return result, nil
}

func (s *Service) ingestOne(ctx context.Context, raw pos.RawReceipt, result *Result) {
	externalID := raw.ExternalID()
	if externalID == "" {
		s.logger.Warn("rejecting receipt without identifier", "receipt_number", raw.ReceiptNumber)
		result.Rejected++
		return
	}

	createdAt, err := raw.Timestamp()
	if err != nil {
		s.logger.Warn("rejecting receipt without valid timestamp",
			"external_id", externalID,
			"error", err)
		result.Rejected++
		return
	}

	_, err = s.store.FindReceiptByExternalID(ctx, externalID)
	switch {
	case err == nil:
		result.Skipped++
		return
	case !errors.Is(err, common.ErrNotFound):
		s.logger.Error("failed to check receipt", "external_id", externalID, "error", err)
		result.Failed++
		return
	}

	receipt := raw.Receipt(createdAt, s.shifts.DateFor(createdAt))
	if err := s.store.InsertReceipt(ctx, &receipt); err != nil {
		s.logger.Error("failed to store receipt", "external_id", externalID, "error", err)
		result.Failed++
		return
	}
	result.Processed++
}
