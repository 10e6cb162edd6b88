package console

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// masteryBar renders a fixed-width horizontal bar for a score in [0, 1].
func masteryBar(score float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(float64(width)*score + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	color := Error
	switch {
	case score > 0.85:
		color = Success
	case score > 0.6:
		color = Secondary
	case score > 0.3:
		color = Warning
	}

	on := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	off := lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", width-filled))
	return on + off + fmt.Sprintf(" %3.0f%%", score*100)
}
