package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/agbru/fanwrite/internal/ui"
)

// Styles for the dashboard, rebuilt from the ui palette by initStyles.
var (
	panelStyle     lipgloss.Style
	titleStyle     lipgloss.Style
	dimStyle       lipgloss.Style
	accentStyle    lipgloss.Style
	successStyle   lipgloss.Style
	warningStyle   lipgloss.Style
	errorStyle     lipgloss.Style
	sparklineStyle lipgloss.Style
	cpuStyle       lipgloss.Style

	colorless bool
)

func init() {
	initStyles()
}

// initStyles rebuilds all styles from the current ui theme. Run calls it
// again after the application has initialized the theme.
func initStyles() {
	p := ui.CurrentPalette()
	_, colorless = p.Accent.(lipgloss.NoColor)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Foreground(p.Text).
		Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	dimStyle = lipgloss.NewStyle().Foreground(p.Dim)
	accentStyle = lipgloss.NewStyle().Foreground(p.Accent)
	successStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	sparklineStyle = lipgloss.NewStyle().Foreground(p.Accent)
	cpuStyle = lipgloss.NewStyle().Foreground(p.Warning)
}

// newBar returns a progress bar of the given width in the current theme.
func newBar(width int) progress.Model {
	opts := []progress.Option{progress.WithWidth(width), progress.WithoutPercentage()}
	if colorless {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	} else {
		opts = append(opts, progress.WithDefaultGradient())
	}
	return progress.New(opts...)
}
