package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/exhale-app/exhale/internal/domain"
)

// ─── XP Bar ─────────────────────────────────────────────────────────────────
// Renders level progress as: [████████████░░░░░░░░░░░░░░░░░░]  42%

const barWidth = 30 // Characters for the progress bar

func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return fmt.Sprintf("[%s%s] %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", barWidth-filled),
		pct)
}

// levelLine renders "Level 3 Fighter  [███...] 42%  (1,050 XP, 150 to next)".
func levelLine(l domain.UserLevel) string {
	line := fmt.Sprintf("Level %d %s  %s  (%s XP", l.Level, l.Tier.Name, renderBar(l.ProgressPct), humanize.Comma(l.XP))
	if l.MaxLevel {
		return line + ", max level)"
	}
	return line + fmt.Sprintf(", %s to next)", humanize.Comma(l.XPToNext))
}

// lifeLine renders regained life expectancy, e.g. "1d 12h 40m".
func lifeLine(l domain.LifeRegained) string {
	return fmt.Sprintf("%dd %dh %dm", l.Days, l.Hours, l.Minutes)
}

func check(done bool) string {
	if done {
		return "✔"
	}
	return " "
}
