package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/shiftbook/internal/expense"
)

// Outcome is what a review session did.
type Outcome struct {
	Committed *expense.CommitSummary
	Patched   int
}

// RunReview runs the review screen for a batch until the user quits or commits.
func RunReview(ctx context.Context, reviewer Reviewer, batchID string, opts ...Option) (*Outcome, error) {
	if reviewer == nil {
		return nil, fmt.Errorf("reviewer is required")
	}

	p := tea.NewProgram(
		NewModel(ctx, reviewer, batchID, opts...),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("review screen failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected review model %T", final)
	}
	if m.lastError != nil && m.committed == nil {
		return &Outcome{Patched: m.patched}, m.lastError
	}
	return &Outcome{Committed: m.committed, Patched: m.patched}, nil
}
