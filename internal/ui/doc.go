// Package ui holds the console color themes and the matching lipgloss
// palettes shared by the spinner output, the summary table and the
// dashboard. NO_COLOR and --no-color select the colorless theme.
package ui
