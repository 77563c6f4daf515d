// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config and opens the journal with its local cache and remote store

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/config"
	"github.com/harper/daybook/internal/journal"
	"github.com/harper/daybook/internal/remote"
	"github.com/harper/daybook/internal/storage"
)

// skipJournal marks commands that run without opening the journal.
const skipJournal = "skip-journal"

var (
	verbose    bool
	offline    bool
	windowSize int

	cfg     *config.Config
	logger  *log.Logger
	kvStore storage.KV
	jrnl    *journal.Journal
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Rolling-week journal with Charm sync and MCP integration",
	Long: `
██████╗  █████╗ ██╗   ██╗██████╗  ██████╗  ██████╗ ██╗  ██╗
██╔══██╗██╔══██╗╚██╗ ██╔╝██╔══██╗██╔═══██╗██╔═══██╗██║ ██╔╝
██║  ██║███████║ ╚████╔╝ ██████╔╝██║   ██║██║   ██║█████╔╝
██║  ██║██╔══██║  ╚██╔╝  ██╔══██╗██║   ██║██║   ██║██╔═██╗
██████╔╝██║  ██║   ██║   ██████╔╝╚██████╔╝╚██████╔╝██║  ██╗
╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═════╝  ╚═════╝  ╚═════╝ ╚═╝  ╚═╝

A week of days, a few lines each.

Items are saved locally first and synced to Charm in the background.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger()
		if cmd.Annotations[skipJournal] == "true" {
			return nil
		}
		return openJournal(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeJournal()
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "do not contact the remote store")
	rootCmd.PersistentFlags().IntVar(&windowSize, "window", 0, "number of visible days (default from config, 7)")
}

func newLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "daybook"})
	l.SetLevel(log.WarnLevel)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func openJournal(ctx context.Context) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kvStore, err = cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}

	var store remote.Store = remote.Disabled{}
	if !offline {
		store = cfg.OpenRemote(logger)
	}

	size := cfg.GetWindowSize()
	if windowSize > 0 {
		size = windowSize
	}

	jrnl, err = journal.Open(journal.Options{
		Cache:         storage.NewCache(kvStore, logger),
		Remote:        store,
		Logger:        logger,
		WindowSize:    size,
		RemoteTimeout: config.DefaultRemoteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	return jrnl.Load(ctx)
}

// closeJournal lets background remote writes finish so their results are
// persisted, then releases the cache.
func closeJournal() error {
	if jrnl != nil {
		jrnl.Wait()
		if err := jrnl.Close(); err != nil {
			return fmt.Errorf("failed to close journal: %w", err)
		}
		jrnl = nil
	}
	if kvStore != nil {
		if err := kvStore.Close(); err != nil {
			return fmt.Errorf("failed to close local cache: %w", err)
		}
		kvStore = nil
	}
	return nil
}
