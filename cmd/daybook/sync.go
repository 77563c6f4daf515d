// ABOUTME: Sync subcommand for Charm cloud integration
// ABOUTME: Provides status, link, pull, push, repair and reset commands

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/charm"
	"github.com/harper/daybook/internal/config"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage cloud sync for daybook items",
	Long: `Sync your daybook items to the cloud using Charm.

Charm uses your SSH keys for authentication - no passwords needed!
All data is encrypted end-to-end before being stored.

Items are always saved locally first. Sync happens in the background
whenever remote sync is enabled in the config.

Commands:
  status  - Show sync status and account info
  link    - Link your account (open browser to charm.2389.dev)
  pull    - Fetch the visible days from Charm and merge them
  push    - Upload items that have not reached Charm yet
  repair  - Fix a corrupted local Charm database
  reset   - Delete local Charm data and re-sync from cloud

Examples:
  daybook sync status
  daybook sync pull
  daybook sync push
  daybook sync reset`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long:  `Display current sync configuration, Charm account status and pending items.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := jrnl.Stats()
		fmt.Printf("Local: %d item(s) across %d day(s), %d waiting to sync\n", stats.Items, stats.Days, stats.Pending)
		fmt.Printf("  Backend: %s (%s)\n\n", cfg.GetBackend(), cfg.GetDataDir())

		if !stats.Remote {
			color.Yellow("Remote sync disabled")
			fmt.Printf("\nSet remote.enabled in %s or run 'daybook setup'.\n", config.GetConfigPath())
			return nil
		}

		client, err := cfg.OpenCharm(logger)
		if err != nil {
			return fmt.Errorf("failed to open charm client: %w", err)
		}

		id, err := client.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("\nRun 'daybook sync link' to connect your account.")
			return nil
		}

		color.Green("Linked to Charm")
		fmt.Printf("  Account ID: %s\n", id)
		fmt.Printf("  Server: %s\n", charmHost())
		fmt.Printf("  Database: %s\n", client.DBName())

		remoteStats, err := client.GetStats()
		if err == nil {
			fmt.Printf("\n  Remote items: %d across %d day(s)\n", remoteStats.TotalItems, remoteStats.Days)
		}
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link to Charm account",
	Long: `Link this device to your Charm account.

Opens your browser to authenticate with Charm Cloud.
Your SSH keys are used for secure authentication.`,
	Annotations: map[string]string{skipJournal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := charm.GetCharmClient()
		if err != nil {
			return fmt.Errorf("failed to get charm client: %w", err)
		}

		id, err := cc.ID()
		if err == nil {
			color.Green("Already linked to Charm!")
			fmt.Printf("  Account ID: %s\n", id)
			return nil
		}

		fmt.Println("Opening browser to link your Charm account...")
		fmt.Printf("Visit: https://%s\n\n", charm.DefaultCharmHost)

		color.Yellow("After linking in browser, run 'daybook sync push' to upload pending items.")
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and merge the visible days from Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !jrnl.RemoteEnabled() {
			return fmt.Errorf("remote sync is disabled")
		}
		if !jrnl.Refresh(cmd.Context()) {
			return fmt.Errorf("could not reach Charm; local data unchanged")
		}
		jrnl.Wait()
		stats := jrnl.Stats()
		color.Green("  ✓ Merged %d day(s) from Charm", len(jrnl.Window()))
		fmt.Printf("  %d item(s) locally, %d waiting to sync\n", stats.Items, stats.Pending)
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload items that have not reached Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !jrnl.RemoteEnabled() {
			return fmt.Errorf("remote sync is disabled")
		}
		started := jrnl.UploadPending()
		jrnl.Wait()

		left := jrnl.Stats().Pending
		if started == 0 && left == 0 {
			color.Green("  ✓ Nothing to upload")
			return nil
		}
		if uploaded := started - left; uploaded > 0 {
			color.Green("  ✓ Uploaded %d item(s)", uploaded)
		}
		if left > 0 {
			color.Yellow("  %d item(s) still waiting; run with --verbose to see errors", left)
		}
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a corrupted local Charm database",
	Long: `Attempt to repair a corrupted local Charm database.

Steps performed:
  1. Checkpoint WAL (write-ahead log) into main database
  2. Remove stale SHM (shared memory) files
  3. Run integrity check
  4. Vacuum database to reclaim space

Use --force to attempt REINDEX recovery if corruption is detected.`,
	Annotations: map[string]string{skipJournal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("Repairing database...")
		result, err := kv.Repair(c.GetDBName(), force)

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}

		if err != nil {
			if !force {
				fmt.Println("\nRun with --force to attempt REINDEX recovery.")
			}
			return err
		}

		color.Green("\nRepair complete.")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete local Charm data and re-download from cloud",
	Long: `Delete the local Charm database and re-sync from Charm Cloud.

The daybook cache is kept, so items that never reached Charm stay
pending and are uploaded on the next sync.`,
	Annotations: map[string]string{skipJournal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			fmt.Println("This will DELETE the local Charm database and re-download from Charm Cloud.")
			fmt.Print("\nContinue? [y/N] ")

			reader := bufio.NewReader(os.Stdin)
			confirmation, _ := reader.ReadString('\n')
			confirmation = strings.TrimSpace(confirmation)

			if confirmation != "y" && confirmation != "Y" {
				fmt.Println("Canceled.")
				return nil
			}
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		client, err := c.OpenCharm(logger)
		if err != nil {
			return fmt.Errorf("failed to open charm client: %w", err)
		}

		fmt.Println("\nResetting database...")
		if err := client.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		color.Green("  ✓ Local database deleted")
		color.Green("  ✓ Synced from cloud")
		color.Green("\nReset complete.")
		return nil
	},
}

// charmHost returns the server in use.
func charmHost() string {
	if h := os.Getenv("CHARM_HOST"); h != "" {
		return h
	}
	return charm.DefaultCharmHost
}

func init() {
	syncRepairCmd.Flags().Bool("force", false, "Attempt REINDEX recovery if corruption detected")
	syncResetCmd.Flags().BoolP("yes", "y", false, "skip confirmation")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)

	rootCmd.AddCommand(syncCmd)
}
