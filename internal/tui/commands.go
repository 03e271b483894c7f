package tui

import (
	"github.com/Veraticus/shiftbook/internal/expense"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) loadLines() tea.Cmd {
	ctx, reviewer, batchID := m.ctx, m.reviewer, m.batchID
	return func() tea.Msg {
		lines, err := reviewer.ListLines(ctx, batchID, expense.ListOptions{})
		if err != nil {
			return errorMsg{err: err}
		}
		return linesLoadedMsg{lines: lines}
	}
}

func (m Model) patchLine(lineID string, patch expense.LinePatch, action string) tea.Cmd {
	ctx, reviewer := m.ctx, m.reviewer
	return func() tea.Msg {
		res, err := reviewer.PatchLine(ctx, lineID, patch)
		if err != nil {
			return errorMsg{err: err}
		}
		return linePatchedMsg{line: *res.Line, action: action}
	}
}

func (m Model) commit() tea.Cmd {
	ctx, reviewer, batchID := m.ctx, m.reviewer, m.batchID
	return func() tea.Msg {
		summary, err := reviewer.CommitBatch(ctx, batchID)
		if err != nil {
			return errorMsg{err: err}
		}
		return committedMsg{summary: summary}
	}
}
