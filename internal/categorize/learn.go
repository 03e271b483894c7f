package categorize

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/textmatch"
)

// minAliasRunes is the length a token must exceed to become an alias.
const minAliasRunes = 2

// Correction is a reviewer's verdict on a description.
type Correction struct {
	CategoryID  *int64
	Description string
	VendorID    int64
}

// LearnResult reports what a correction changed.
type LearnResult struct {
	Alias              string
	AliasCreated       bool
	CategoryBackfilled bool
}

// LearnFromCorrection records a new alias for the corrected vendor and, if
// the vendor has no default category yet, adopts the corrected one. The
// snapshot is reloaded afterwards so the next Categorize sees the change.
func (e *Engine) LearnFromCorrection(ctx context.Context, c Correction) (*LearnResult, error) {
	if e.store == nil {
		return nil, ErrNoCatalog
	}

	vendor, err := e.store.GetVendor(ctx, c.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load corrected vendor: %w", err)
	}

	result := &LearnResult{}
	text := textmatch.Normalize(c.Description)
	token := longestToken(c.Description)

	matched := true
	if token != "" {
		if matched, err = e.vendorAlreadyMatches(ctx, vendor, text, token); err != nil {
			return nil, err
		}
	}
	if !matched {
		alias := model.VendorAlias{VendorID: vendor.ID, Alias: token}
		switch err := e.store.InsertVendorAlias(ctx, &alias); {
		case err == nil:
			result.Alias = token
			result.AliasCreated = true
		case errors.Is(err, common.ErrDuplicateEntry):
		default:
			return nil, fmt.Errorf("failed to record alias: %w", err)
		}
	}

	if c.CategoryID != nil && !vendor.HasDefaultCategory() {
		if err := e.store.UpdateVendorDefaultCategory(ctx, vendor.ID, *c.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to set vendor category: %w", err)
		}
		result.CategoryBackfilled = true
	}

	if result.AliasCreated || result.CategoryBackfilled {
		if err := e.Reload(ctx); err != nil {
			return nil, err
		}
	}

	e.logger.Info("learned from correction",
		"vendor", vendor.Name,
		"alias", result.Alias,
		"alias_created", result.AliasCreated,
		"category_backfilled", result.CategoryBackfilled)
	return result, nil
}

// vendorAlreadyMatches checks the vendor's stored aliases and its name.
func (e *Engine) vendorAlreadyMatches(ctx context.Context, vendor *model.Vendor, text, token string) (bool, error) {
	aliases, err := e.store.ListVendorAliases(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load vendor aliases: %w", err)
	}

	existing := []string{textmatch.Normalize(vendor.Name)}
	for _, a := range aliases {
		if a.VendorID == vendor.ID {
			existing = append(existing, textmatch.Normalize(a.Alias))
		}
	}
	for _, a := range existing {
		if a == "" {
			continue
		}
		if textmatch.Contains(text, a) || textmatch.Similarity(a, token) >= FuzzyThreshold {
			return true, nil
		}
	}
	return false, nil
}

// longestToken picks the longest significant token; the first one wins ties.
func longestToken(description string) string {
	var best string
	bestLen := 0
	for _, tok := range textmatch.SignificantTokens(description, minAliasRunes) {
		if n := utf8.RuneCountInString(tok); n > bestLen {
			best, bestLen = tok, n
		}
	}
	return best
}
