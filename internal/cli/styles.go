// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Palette.
var (
	accentColor  = lipgloss.Color("#5B8DEF")
	incomeColor  = lipgloss.Color("#4ECDC4")
	outcomeColor = lipgloss.Color("#FF6B6B")
	warningColor = lipgloss.Color("#FFE66D")
	infoColor    = lipgloss.Color("#95E1D3")
	borderColor  = lipgloss.Color("#333")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor).Padding(1, 2)

	// IncomeStyle colors money coming in and successful outcomes.
	IncomeStyle = lipgloss.NewStyle().Foreground(incomeColor)
	// OutcomeStyle colors money going out and failures.
	OutcomeStyle = lipgloss.NewStyle().Foreground(outcomeColor)
	// InfoStyle colors neutral detail.
	InfoStyle = lipgloss.NewStyle().Foreground(infoColor)
	// SubtleStyle dims secondary text such as ids and timestamps.
	SubtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
	ChartIcon   = "📊"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return IncomeStyle.Render(SuccessIcon + " " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return OutcomeStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return warningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatAmount renders a transaction value signed by its type: "+12.50"
// for income, "-3.00" for outcome.
func FormatAmount(txn *model.Transaction) string {
	if txn.Type == model.TypeOutcome {
		return OutcomeStyle.Render("-" + txn.Value.StringFixed(2))
	}
	return IncomeStyle.Render("+" + txn.Value.StringFixed(2))
}

// FormatBalance renders a balance with two decimals, red when negative.
func FormatBalance(balance decimal.Decimal) string {
	style := IncomeStyle
	if balance.IsNegative() {
		style = OutcomeStyle
	}
	return style.Render(balance.StringFixed(2))
}

// RenderBox draws content in a rounded box headed by title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content))
}
