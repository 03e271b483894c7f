package tui

import (
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/model"
)

type linesLoadedMsg struct {
	lines []model.ImportLine
}

type linePatchedMsg struct {
	line   model.ImportLine
	action string
}

type committedMsg struct {
	summary *expense.CommitSummary
}

type errorMsg struct {
	err error
}
