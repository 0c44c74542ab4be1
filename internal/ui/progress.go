package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
)

// PrintProgress renders a print progress bar with its percentage. A
// negative percent renders an empty bar labelled "--".
func PrintProgress(percent, width int) string {
	barWidth := width - 10
	if barWidth < 20 {
		barWidth = 20
	}
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	if percent < 0 {
		return bar.ViewAs(0) + MutedStyle.Render("   --")
	}
	if percent > 100 {
		percent = 100
	}
	return bar.ViewAs(float64(percent)/100) + fmt.Sprintf(" %3d%%", percent)
}
