// ABOUTME: Week command showing the visible window of days
// ABOUTME: Prints each day newest first with its items in recorded order

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/config"
	"github.com/harper/daybook/internal/timeutil"
)

var weekCmd = &cobra.Command{
	Use:     "week",
	Aliases: []string{"ls", "list"},
	Short:   "Show the visible days",
	Long:    "Show items for each visible day, today first. Items not yet confirmed by Charm are marked.",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		quiet, _ := cmd.Flags().GetBool("hide-empty")

		window := jrnl.Window()
		now := time.Now()
		if period != "" {
			size, ok := timeutil.ParsePeriod(period)
			if !ok {
				return fmt.Errorf("unknown period %q: use today, week, fortnight or month", period)
			}
			window = timeutil.VisibleDayKeys(now, size)
		}

		bold := color.New(color.Bold).SprintFunc()
		green := color.New(color.FgGreen, color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		days := jrnl.Days()
		for _, key := range window {
			items := days[key]
			if quiet && len(items) == 0 {
				continue
			}

			label := timeutil.DisplayLabel(key)
			if timeutil.IsToday(key, now) {
				fmt.Println(green(label + " (today)"))
			} else {
				fmt.Println(bold(label))
			}
			if len(items) == 0 {
				fmt.Println(faint("  nothing recorded"))
			}
			for _, item := range items {
				fmt.Println("  " + formatItem(item))
			}
			fmt.Println()
		}

		if n := days.PendingCount(); n > 0 {
			fmt.Println(faint(strings.Repeat("─", config.SeparatorWidth)))
			color.Yellow("%d item(s) waiting to sync", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)

	weekCmd.Flags().StringP("period", "p", "", "window to show: today, week, fortnight or month")
	weekCmd.Flags().Bool("hide-empty", false, "skip days with no items")
}
