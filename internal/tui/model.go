// Package tui is the interactive review screen for import batches.
package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/tui/themes"
)

// Reviewer is the part of the importer the review screen drives.
type Reviewer interface {
	ListLines(ctx context.Context, batchID string, opts expense.ListOptions) ([]model.ImportLine, error)
	PatchLine(ctx context.Context, lineID string, patch expense.LinePatch) (*expense.PatchResult, error)
	CommitBatch(ctx context.Context, batchID string) (*expense.CommitSummary, error)
	NeedsReview(l *model.ImportLine) bool
}

// Line statuses shown in the table.
const (
	statusError     = "error"
	statusDuplicate = "duplicate"
	statusIgnored   = "ignored"
	statusAccepted  = "accepted"
	statusReview    = "review"
	statusOK        = "ok"
)

// Model holds the review screen state.
type Model struct {
	ctx           context.Context
	reviewer      Reviewer
	lastError     error
	committed     *expense.CommitSummary
	vendors       map[int64]string
	categories    map[int64]string
	theme         themes.Theme
	keymap        KeyMap
	help          help.Model
	batchID       string
	status        string
	lines         []model.ImportLine
	visible       []int
	table         table.Model
	patched       int
	width         int
	height        int
	uncertainOnly bool
	confirming    bool
	ready         bool
	quitting      bool
}

// NewModel creates the review model for one batch.
func NewModel(ctx context.Context, reviewer Reviewer, batchID string, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := Model{
		ctx:        ctx,
		reviewer:   reviewer,
		batchID:    batchID,
		theme:      cfg.Theme,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		vendors:    make(map[int64]string, len(cfg.Vendors)),
		categories: make(map[int64]string, len(cfg.Categories)),
		width:      cfg.Width,
		height:     cfg.Height,
	}
	for _, v := range cfg.Vendors {
		m.vendors[v.ID] = v.Name
	}
	for _, c := range cfg.Categories {
		m.categories[c.ID] = c.Code
	}

	m.table = table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(cfg.Height)),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header
	styles.Selected = cfg.Theme.Selected
	m.table.SetStyles(styles)

	return m
}

// Init loads the batch lines.
func (m Model) Init() tea.Cmd {
	return m.loadLines()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(tableHeight(msg.Height))
		m.help.Width = msg.Width
		return m, nil

	case linesLoadedMsg:
		m.lines = msg.lines
		m.ready = true
		m.refreshRows()
		return m, nil

	case linePatchedMsg:
		for i := range m.lines {
			if m.lines[i].ID == msg.line.ID {
				m.lines[i] = msg.line
				break
			}
		}
		m.patched++
		m.lastError = nil
		m.status = fmt.Sprintf("Row %d %s", msg.line.RowNumber, msg.action)
		m.refreshRows()
		return m, nil

	case committedMsg:
		m.committed = msg.summary
		m.quitting = true
		return m, tea.Quit

	case errorMsg:
		m.lastError = msg.err
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.confirming {
		m.confirming = false
		if key.Matches(msg, m.keymap.Confirm) {
			m.status = "Committing..."
			return m, m.commit()
		}
		m.status = "Commit canceled"
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.Uncertain):
		m.uncertainOnly = !m.uncertainOnly
		m.refreshRows()
		return m, nil

	case key.Matches(msg, m.keymap.Commit):
		m.confirming = true
		m.status = fmt.Sprintf("Commit %d expenses? (y to confirm)", m.committableCount())
		return m, nil

	case key.Matches(msg, m.keymap.ToggleIgnore):
		line := m.selected()
		if line == nil {
			return m, nil
		}
		ignore := !line.Ignored
		action := "ignored"
		if !ignore {
			action = "restored"
		}
		return m, m.patchLine(line.ID, expense.LinePatch{Ignore: &ignore}, action)

	case key.Matches(msg, m.keymap.Accept):
		line := m.selected()
		if line == nil {
			return m, nil
		}
		if line.VendorGuess == nil && line.CategoryGuess == nil {
			m.status = fmt.Sprintf("Row %d has no guess to accept", line.RowNumber)
			return m, nil
		}
		return m, m.patchLine(line.ID, expense.LinePatch{
			VendorID:   line.VendorGuess,
			CategoryID: line.CategoryGuess,
		}, "accepted")
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selected returns the line under the cursor.
func (m Model) selected() *model.ImportLine {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return nil
	}
	return &m.lines[m.visible[cursor]]
}

func (m Model) committableCount() int {
	n := 0
	for i := range m.lines {
		if m.lines[i].Committable() {
			n++
		}
	}
	return n
}

func (m *Model) refreshRows() {
	m.visible = make([]int, 0, len(m.lines))
	rows := make([]table.Row, 0, len(m.lines))
	for i := range m.lines {
		line := &m.lines[i]
		if m.uncertainOnly && !m.reviewer.NeedsReview(line) {
			continue
		}
		m.visible = append(m.visible, i)
		rows = append(rows, m.row(line))
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) row(l *model.ImportLine) table.Row {
	date := l.RawDate
	amount := l.RawAmount
	if l.Parsed {
		date = l.Date.Format("2006-01-02")
		amount = expense.FormatMinor(l.AmountMinor)
	}
	return table.Row{
		strconv.Itoa(l.RowNumber),
		date,
		l.RawDescription,
		amount,
		m.vendorName(l.EffectiveVendor()),
		m.categoryCode(l.EffectiveCategory()),
		fmt.Sprintf("%.0f%%", l.Confidence*100),
		m.lineStatus(l),
	}
}

func (m Model) lineStatus(l *model.ImportLine) string {
	switch {
	case !l.Parsed:
		return statusError
	case l.IsDuplicate():
		return statusDuplicate
	case l.Ignored:
		return statusIgnored
	case l.VendorOverride != nil || l.CategoryOverride != nil:
		return statusAccepted
	case m.reviewer.NeedsReview(l):
		return statusReview
	default:
		return statusOK
	}
}

func (m Model) vendorName(id *int64) string {
	if id == nil {
		return "-"
	}
	if name, ok := m.vendors[*id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func (m Model) categoryCode(id *int64) string {
	if id == nil {
		return "-"
	}
	if code, ok := m.categories[*id]; ok {
		return code
	}
	return "#" + strconv.FormatInt(*id, 10)
}

// Committed returns the commit summary once the batch was committed.
func (m Model) Committed() *expense.CommitSummary {
	return m.committed
}

// Patched returns how many line edits were saved.
func (m Model) Patched() int {
	return m.patched
}

func columns(width int) []table.Column {
	fixed := 4 + 10 + 14 + 18 + 12 + 5 + 9
	desc := max(width-fixed-16, 20)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Date", Width: 10},
		{Title: "Description", Width: desc},
		{Title: "Amount", Width: 14},
		{Title: "Vendor", Width: 18},
		{Title: "Category", Width: 12},
		{Title: "Conf", Width: 5},
		{Title: "Status", Width: 9},
	}
}

func tableHeight(height int) int {
	return max(height-12, 5)
}

var _ help.KeyMap = KeyMap{}
