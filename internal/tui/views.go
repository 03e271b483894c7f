package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/shiftbook/internal/expense"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.theme.StatusMuted.Render("Loading batch " + m.batchID + "...")
	}

	sections := []string{
		m.renderHeader(),
		m.table.View(),
		m.renderDetail(),
		m.renderStatus(),
		m.help.View(m.keymap),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	counts := map[string]int{}
	for i := range m.lines {
		counts[m.lineStatus(&m.lines[i])]++
	}

	title := m.theme.Title.Render("Review batch " + m.batchID)
	summary := fmt.Sprintf("%d lines · %d to review · %d duplicates · %d errors · %d ignored",
		len(m.lines), counts[statusReview], counts[statusDuplicate], counts[statusError], counts[statusIgnored])
	if m.uncertainOnly {
		summary += " · showing uncertain only"
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Subtitle.Render(summary))
}

func (m Model) renderDetail() string {
	line := m.selected()
	if line == nil {
		return m.theme.StatusMuted.Render("No lines to show")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Row %d: %s\n", line.RowNumber, line.RawDescription)
	fmt.Fprintf(&b, "Raw: %s | %s | %s", line.RawDate, line.RawAmount, line.RawCurrency)
	if line.Parsed {
		fmt.Fprintf(&b, "\nParsed: %s %s %s", line.Date.Format("2006-01-02"), expense.FormatMinor(line.AmountMinor), line.Currency)
		fmt.Fprintf(&b, "\nGuess: %s / %s", m.vendorName(line.VendorGuess), m.categoryCode(line.CategoryGuess))
	}
	if line.ParseError != "" {
		b.WriteString("\n" + m.theme.StatusError.Render("Error: "+line.ParseError))
	}
	if line.DuplicateOf != nil {
		b.WriteString("\n" + m.theme.StatusWarning.Render("Duplicate of expense "+*line.DuplicateOf))
	}
	if line.Note != "" {
		b.WriteString("\nNote: " + line.Note)
	}
	return m.theme.Detail.Render(b.String())
}

func (m Model) renderStatus() string {
	switch {
	case m.lastError != nil:
		return m.theme.StatusError.Render("Error: " + m.lastError.Error())
	case m.confirming:
		return m.theme.StatusWarning.Render(m.status)
	case m.status != "":
		return m.theme.StatusInfo.Render(m.status)
	default:
		return ""
	}
}
