// Package categorize guesses the vendor and category of an expense from its
// free-text description using vendor aliases and a keyword rule table.
package categorize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/textmatch"
)

// Confidence levels for vendor matches.
const (
	ExactAliasConfidence = 0.95
	FuzzyAliasConfidence = 0.6
	// FuzzyThreshold is the similarity an alias must exceed to count as a fuzzy match.
	FuzzyThreshold = 0.85
)

// ErrNoCatalog is returned when an engine built around a fixed snapshot is
// asked to reload or learn.
var ErrNoCatalog = errors.New("engine has no catalog store")

// Source says which signal decided the result.
type Source string

// Result sources.
const (
	SourceNone       Source = "none"
	SourceExactAlias Source = "exact_alias"
	SourceFuzzyAlias Source = "fuzzy_alias"
	SourceRule       Source = "rule"
)

// Query is the input to Categorize.
type Query struct {
	Date        time.Time
	Description string
	AmountMinor int64
}

// Result is a categorization guess. Vendor and Category are nil when unknown.
type Result struct {
	Vendor     *model.Vendor
	Category   *model.Category
	Source     Source
	Alias      string
	Rule       string
	Confidence float64
}

// VendorID returns the guessed vendor id, if any.
func (r Result) VendorID() *int64 {
	if r.Vendor == nil {
		return nil
	}
	id := r.Vendor.ID
	return &id
}

// CategoryID returns the guessed category id, if any.
func (r Result) CategoryID() *int64 {
	if r.Category == nil {
		return nil
	}
	id := r.Category.ID
	return &id
}

// Engine categorizes descriptions against the current catalog snapshot.
// Categorize is safe for concurrent use; every call works on the snapshot
// that was current when it started.
type Engine struct {
	store    service.CatalogStore
	snapshot atomic.Pointer[Snapshot]
	logger   *slog.Logger
	rules    []Rule
	mu       sync.Mutex
}

// NewEngine creates an engine backed by store. The snapshot is empty until
// Reload is called.
func NewEngine(store service.CatalogStore, rules []Rule) *Engine {
	e := &Engine{
		store:  store,
		rules:  rules,
		logger: slog.Default().With("component", "categorize"),
	}
	e.snapshot.Store(NewSnapshot(nil, nil, nil))
	return e
}

// NewStaticEngine creates an engine around a fixed snapshot.
func NewStaticEngine(snapshot *Snapshot, rules []Rule) *Engine {
	e := NewEngine(nil, rules)
	e.snapshot.Store(snapshot)
	return e
}

// Snapshot returns the snapshot currently in use.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Rules returns the keyword rule table.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Reload rebuilds the snapshot from the store and swaps it in.
func (e *Engine) Reload(ctx context.Context) error {
	if e.store == nil {
		return ErrNoCatalog
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot, err := LoadSnapshot(ctx, e.store)
	if err != nil {
		return err
	}
	e.snapshot.Store(snapshot)

	e.logger.Debug("catalog snapshot reloaded",
		"vendors", snapshot.VendorCount(),
		"aliases", snapshot.AliasCount())
	return nil
}

// Categorize guesses vendor and category for a description.
// Exact alias containment wins over fuzzy alias similarity; keyword rules then
// supply or override the category. No match yields a zero-confidence result.
func (e *Engine) Categorize(_ context.Context, q Query) Result {
	snap := e.snapshot.Load()
	text := textmatch.Normalize(q.Description)
	if text == "" {
		return Result{Source: SourceNone}
	}

	result := matchVendor(snap, text)
	applyRules(snap, e.rules, text, q.AmountMinor, &result)
	return result
}

func matchVendor(snap *Snapshot, text string) Result {
	for _, a := range snap.aliases {
		if textmatch.Contains(text, a.text) {
			return vendorResult(snap, a, SourceExactAlias, ExactAliasConfidence)
		}
	}

	words := strings.Fields(text)
	var best *aliasEntry
	bestScore := 0.0
	for i := range snap.aliases {
		a := &snap.aliases[i]
		score := bestWindowSimilarity(words, text, a)
		if score > FuzzyThreshold && score > bestScore {
			best, bestScore = a, score
		}
	}
	if best != nil {
		return vendorResult(snap, *best, SourceFuzzyAlias, FuzzyAliasConfidence)
	}

	return Result{Source: SourceNone}
}

// bestWindowSimilarity compares an alias with the whole text and with every
// run of words of the alias' length.
func bestWindowSimilarity(words []string, text string, a *aliasEntry) float64 {
	best := textmatch.Similarity(text, a.text)
	if a.words == 0 || a.words >= len(words) {
		return best
	}
	for i := 0; i+a.words <= len(words); i++ {
		window := strings.Join(words[i:i+a.words], " ")
		if s := textmatch.Similarity(window, a.text); s > best {
			best = s
		}
	}
	return best
}

func vendorResult(snap *Snapshot, a aliasEntry, source Source, confidence float64) Result {
	vendor, ok := snap.Vendor(a.vendorID)
	if !ok {
		return Result{Source: SourceNone}
	}
	result := Result{
		Vendor:     &vendor,
		Source:     source,
		Alias:      a.text,
		Confidence: confidence,
	}
	if vendor.DefaultCategoryID != nil {
		if cat, ok := snap.Category(*vendor.DefaultCategoryID); ok {
			result.Category = &cat
		}
	}
	return result
}

func applyRules(snap *Snapshot, rules []Rule, text string, amountMinor int64, result *Result) {
	for _, rule := range rules {
		if !rule.Matches(text, amountMinor) {
			continue
		}
		cat, ok := snap.CategoryByCode(rule.CategoryCode)
		if !ok {
			continue
		}

		switch {
		case result.Vendor == nil:
			result.Category = &cat
			result.Confidence = rule.Confidence
			result.Source = SourceRule
			result.Rule = rule.Name
		case result.Category == nil:
			// Vendor known without a default category: the rule fills the gap
			// and its confidence caps the result so the guess still gets reviewed.
			result.Category = &cat
			result.Confidence = min(result.Confidence, rule.Confidence)
			result.Rule = rule.Name
		case rule.Confidence > result.Confidence:
			result.Category = &cat
			result.Confidence = rule.Confidence
			result.Source = SourceRule
			result.Rule = rule.Name
		}
		return
	}
}
