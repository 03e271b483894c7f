package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/model"
)

type fakeReviewer struct {
	listErr   error
	commitErr error
	lines     []model.ImportLine
	patches   map[string]expense.LinePatch
	commits   int
}

func newFakeReviewer() *fakeReviewer {
	vendor, category := int64(10), int64(3)
	dup := "existing"
	return &fakeReviewer{
		patches: make(map[string]expense.LinePatch),
		lines: []model.ImportLine{
			{ID: "l1", RowNumber: 1, RawDescription: "METRO CASH & CARRY", Parsed: true, Confidence: 0.95,
				Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), AmountMinor: 125000000,
				VendorGuess: &vendor, CategoryGuess: &category},
			{ID: "l2", RowNumber: 2, RawDescription: "Random stall", Parsed: true, Confidence: 0,
				Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), AmountMinor: 5000},
			{ID: "l3", RowNumber: 3, RawDescription: "Ice delivery", Parsed: true, Confidence: 0.65,
				Date: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), AmountMinor: 30000000, DuplicateOf: &dup},
			{ID: "l4", RowNumber: 4, RawDescription: "Bad row", RawDate: "31/02/2024", ParseError: "invalid date"},
		},
	}
}

func (f *fakeReviewer) ListLines(_ context.Context, _ string, _ expense.ListOptions) ([]model.ImportLine, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.ImportLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeReviewer) PatchLine(_ context.Context, lineID string, patch expense.LinePatch) (*expense.PatchResult, error) {
	for i := range f.lines {
		l := &f.lines[i]
		if l.ID != lineID {
			continue
		}
		f.patches[lineID] = patch
		if patch.Ignore != nil {
			l.Ignored = *patch.Ignore
		}
		if patch.VendorID != nil {
			l.VendorOverride = patch.VendorID
		}
		if patch.CategoryID != nil {
			l.CategoryOverride = patch.CategoryID
		}
		line := *l
		return &expense.PatchResult{Line: &line}, nil
	}
	return nil, errors.New("no such line")
}

func (f *fakeReviewer) CommitBatch(_ context.Context, _ string) (*expense.CommitSummary, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	f.commits++
	created := 0
	for i := range f.lines {
		if f.lines[i].Committable() {
			created++
		}
	}
	return &expense.CommitSummary{Created: created, Skipped: len(f.lines) - created}, nil
}

func (f *fakeReviewer) NeedsReview(l *model.ImportLine) bool {
	return l.Parsed && l.Confidence < 0.8
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and then every message its command produces,
// the way the bubbletea runtime would.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if _, quit := out.(tea.QuitMsg); quit || out == nil {
			return m, cmd
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m, nil
}

func loadedModel(t *testing.T, f *fakeReviewer) Model {
	t.Helper()

	m := NewModel(context.Background(), f, "batch-1",
		WithCatalog(
			[]model.Vendor{{ID: 10, Name: "Metro Cash & Carry"}},
			[]model.Category{{ID: 3, Code: model.CategoryCodeIngredients}},
		),
		WithSize(140, 40),
	)
	m, _ = send(t, m, m.Init()())
	require.True(t, m.ready)
	return m
}

func TestModel_LoadsLines(t *testing.T) {
	m := loadedModel(t, newFakeReviewer())

	assert.Len(t, m.table.Rows(), 4)
	first := m.table.Rows()[0]
	assert.Equal(t, "Metro Cash & Carry", first[4])
	assert.Equal(t, model.CategoryCodeIngredients, first[5])
	assert.Equal(t, "95%", first[6])

	statuses := make([]string, 0, 4)
	for _, r := range m.table.Rows() {
		statuses = append(statuses, r[7])
	}
	assert.Equal(t, []string{statusOK, statusReview, statusDuplicate, statusError}, statuses)
	assert.Contains(t, m.View(), "Review batch batch-1")
}

func TestModel_LoadError(t *testing.T) {
	f := newFakeReviewer()
	f.listErr = errors.New("database is locked")

	m := NewModel(context.Background(), f, "batch-1")
	m, _ = send(t, m, m.Init()())

	assert.EqualError(t, m.lastError, "database is locked")
	assert.Contains(t, m.View(), "database is locked")
}

func TestModel_ToggleIgnore(t *testing.T) {
	f := newFakeReviewer()
	m := loadedModel(t, f)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "l2", m.selected().ID)

	m, _ = send(t, m, runes("x"))
	assert.True(t, m.lines[1].Ignored)
	assert.Equal(t, statusIgnored, m.table.Rows()[1][7])
	assert.Equal(t, "Row 2 ignored", m.status)

	m, _ = send(t, m, runes("x"))
	assert.False(t, m.lines[1].Ignored)
	assert.Equal(t, "Row 2 restored", m.status)
	assert.Equal(t, 2, m.Patched())
}

func TestModel_AcceptGuess(t *testing.T) {
	f := newFakeReviewer()
	m := loadedModel(t, f)

	m, _ = send(t, m, runes("a"))
	patch, ok := f.patches["l1"]
	require.True(t, ok)
	require.NotNil(t, patch.VendorID)
	assert.Equal(t, int64(10), *patch.VendorID)
	assert.Equal(t, statusAccepted, m.table.Rows()[0][7])

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(t, m, runes("a"))
	_, patched := f.patches["l2"]
	assert.False(t, patched, "a line without a guess is left alone")
	assert.Equal(t, "Row 2 has no guess to accept", m.status)
}

func TestModel_UncertainFilter(t *testing.T) {
	m := loadedModel(t, newFakeReviewer())

	m, _ = send(t, m, runes("u"))
	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "l2", m.selected().ID)

	m, _ = send(t, m, runes("u"))
	assert.Len(t, m.table.Rows(), 4)
}

func TestModel_Commit(t *testing.T) {
	tests := []struct {
		name        string
		confirm     tea.KeyMsg
		wantCommits int
		wantQuit    bool
	}{
		{name: "confirmed", confirm: runes("y"), wantCommits: 1, wantQuit: true},
		{name: "declined", confirm: runes("n"), wantCommits: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeReviewer()
			m := loadedModel(t, f)

			m, _ = send(t, m, runes("c"))
			assert.True(t, m.confirming)
			assert.Equal(t, "Commit 2 expenses? (y to confirm)", m.status)

			m, cmd := send(t, m, tt.confirm)
			assert.False(t, m.confirming)
			assert.Equal(t, tt.wantCommits, f.commits)

			if !tt.wantQuit {
				assert.Nil(t, m.Committed())
				assert.Equal(t, "Commit canceled", m.status)
				return
			}
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			require.NotNil(t, m.Committed())
			assert.Equal(t, 2, m.Committed().Created)
		})
	}
}

func TestModel_CommitError(t *testing.T) {
	f := newFakeReviewer()
	f.commitErr = errors.New("batch is DRAFT")
	m := loadedModel(t, f)

	m, _ = send(t, m, runes("c"))
	m, _ = send(t, m, runes("y"))

	assert.Nil(t, m.Committed())
	assert.EqualError(t, m.lastError, "batch is DRAFT")
	assert.False(t, m.quitting)
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{name: "q", msg: runes("q")},
		{name: "esc", msg: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadedModel(t, newFakeReviewer())
			m, cmd := send(t, m, tt.msg)

			require.NotNil(t, cmd)
			assert.True(t, m.quitting)
			assert.Empty(t, m.View())
		})
	}
}
