// ABOUTME: Shared CLI helpers for day arguments and item display
// ABOUTME: Parses --day values and formats item lines with color

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harper/daybook/internal/config"
	"github.com/harper/daybook/internal/models"
	"github.com/harper/daybook/internal/timeutil"
)

// parseDay resolves "today", "yesterday", "-N" (days ago) or a YYYY-MM-DD key.
func parseDay(s string, now time.Time) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "today":
		return timeutil.DayKey(now), nil
	case "yesterday":
		return timeutil.DayKey(now.AddDate(0, 0, -1)), nil
	}
	if strings.HasPrefix(s, "-") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid day offset %q", s)
		}
		return timeutil.DayKey(now.AddDate(0, 0, -n)), nil
	}
	if !timeutil.ValidDayKey(s) {
		return "", fmt.Errorf("invalid day %q: use today, yesterday, -N or YYYY-MM-DD", s)
	}
	return s, nil
}

// shortID truncates a serialized identity for display.
func shortID(id models.Identity) string {
	s := id.String()
	if len(s) > config.DisplayIDLength {
		return s[:config.DisplayIDLength]
	}
	return s
}

// formatItem renders one item line.
func formatItem(item models.Item) string {
	faint := color.New(color.Faint).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var b strings.Builder
	b.WriteString(faint(fmt.Sprintf("%-*s", config.DisplayIDLength, shortID(item.ID))))
	b.WriteString(" ")
	b.WriteString(faint(item.CreatedTime().Format(config.TimeFormatShort)))
	b.WriteString(" ")
	b.WriteString(item.Title)
	if item.Link != "" {
		b.WriteString(" ")
		b.WriteString(cyan(item.Link))
	}
	if item.Pending() {
		b.WriteString(" ")
		b.WriteString(yellow("(not synced)"))
	}
	return b.String()
}
