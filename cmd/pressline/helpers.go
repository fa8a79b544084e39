package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pressline/internal/health"
	"pressline/internal/orders"
	"pressline/internal/priority"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var titleCaser = cases.Title(language.Und)

// shortID abbreviates a uuid for table display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// stageLabel renders a stage or substage name for humans.
func stageLabel(value string) string {
	if value == "" {
		return "-"
	}
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func formatHours(hours float64) string {
	if hours <= 0 {
		return "-"
	}
	if hours < 1 {
		return fmt.Sprintf("%.0fm", hours*60)
	}
	return fmt.Sprintf("%.1fh", hours)
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02")
}

func lineStageCell(line *orders.Line) string {
	label := stageLabel(string(line.CurrentStage))
	if line.CurrentSubstage != "" {
		label += " / " + stageLabel(string(line.CurrentSubstage))
	}
	return label
}

func colorizeTier(tier priority.Tier, colorize bool) string {
	label := titleCaser.String(tier.String())
	if !colorize {
		return label
	}
	switch tier {
	case priority.TierUrgent:
		return ansiRed + label + ansiReset
	case priority.TierWarning:
		return ansiYellow + label + ansiReset
	default:
		return ansiGreen + label + ansiReset
	}
}

func colorizeHealth(status health.Status, colorize bool) string {
	label := stageLabel(string(status))
	if !colorize {
		return label
	}
	switch status {
	case health.StatusCritical:
		return ansiRed + label + ansiReset
	case health.StatusAtRisk:
		return ansiYellow + label + ansiReset
	default:
		return ansiGreen + label + ansiReset
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
