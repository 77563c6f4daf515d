// ABOUTME: Cobra command for interactive daybook configuration.
// ABOUTME: Launches a bubbletea TUI wizard to select backend, data directory and sync database.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/config"
	"github.com/harper/daybook/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Configure daybook storage and sync",
	Long:        "Interactive wizard to configure the local cache backend, data directory and Charm sync database.",
	Annotations: map[string]string{skipJournal: "true"},
	RunE:        runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	existing := tui.Result{Backend: c.Backend, DataDir: c.DataDir}
	if c.Remote.Enabled {
		existing.DBName = c.GetDBName()
	}
	model := tui.NewSetupModel(existing)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup canceled.")
		return nil
	}

	applySetup(c, final.Result())

	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Config saved to %s\n", config.GetConfigPath())
	return nil
}

// applySetup copies wizard results into c. An empty database name turns
// remote sync off.
func applySetup(c *config.Config, r tui.Result) {
	c.Backend = r.Backend
	c.DataDir = r.DataDir
	c.Remote.DBName = r.DBName
	c.Remote.Enabled = r.DBName != ""
}
