// ABOUTME: Add command for recording an item on a day
// ABOUTME: Saves locally, waits for the background upload and reports sync state

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/timeutil"
)

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "Add an item to a day",
	Long: `Add an item to today or another day.

Examples:
  daybook add "Lunch with Alex"
  daybook add --day yesterday Fixed the gutter
  daybook add --day 2024-03-15 --link https://example.com Read this`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dayFlag, _ := cmd.Flags().GetString("day")
		link, _ := cmd.Flags().GetString("link")

		day, err := parseDay(dayFlag, time.Now())
		if err != nil {
			return err
		}

		item, err := jrnl.AddItem(day, strings.Join(args, " "), link)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}

		color.Green("Added to %s", timeutil.DisplayLabel(day))

		if !jrnl.RemoteEnabled() {
			fmt.Println(formatItem(item))
			return nil
		}

		jrnl.Wait()
		for _, it := range jrnl.Day(day) {
			if it.Nonce == item.Nonce {
				fmt.Println(formatItem(it))
				return nil
			}
		}
		fmt.Println(formatItem(item))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringP("day", "d", "today", "day to add to: today, yesterday, -N or YYYY-MM-DD")
	addCmd.Flags().StringP("link", "l", "", "optional link")
}
