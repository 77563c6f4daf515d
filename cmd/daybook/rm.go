// ABOUTME: Remove command for deleting an item by identity or prefix
// ABOUTME: Removes locally right away; synced items are also removed from Charm

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/timeutil"
)

var rmCmd = &cobra.Command{
	Use:     "rm <item-id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove an item",
	Long:    "Remove an item by its full identity or a unique prefix of at least 6 characters.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, item, err := jrnl.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to find item: %w", err)
		}

		removed, err := jrnl.RemoveItem(day, item.ID.String())
		if err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}
		if !removed {
			color.Yellow("Item %s was already gone", shortID(item.ID))
			return nil
		}

		color.Green("Removed %q from %s", item.Title, timeutil.DisplayLabel(day))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
