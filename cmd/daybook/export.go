// ABOUTME: Export command writing the visible window as JSON, YAML or Markdown
// ABOUTME: Markdown can be rendered for the terminal with glamour

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/daybook/internal/export"
	"github.com/harper/daybook/internal/timeutil"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the visible days",
	Long: `Export the visible days as JSON, YAML or Markdown.

Examples:
  daybook export
  daybook export --format yaml --output week.yaml
  daybook export --format markdown --render
  daybook export --period month --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		render, _ := cmd.Flags().GetBool("render")
		output, _ := cmd.Flags().GetString("output")
		period, _ := cmd.Flags().GetString("period")

		window := jrnl.Window()
		if period != "" {
			size, ok := timeutil.ParsePeriod(period)
			if !ok {
				return fmt.Errorf("unknown period %q: use today, week, fortnight or month", period)
			}
			window = timeutil.VisibleDayKeys(time.Now(), size)
		}
		days := export.Build(window, jrnl.Days())

		var buf bytes.Buffer
		if err := export.Write(&buf, format, days); err != nil {
			return err
		}

		if render && output == "" {
			if format != export.FormatMarkdown && format != "md" {
				return fmt.Errorf("--render only applies to markdown output")
			}
			rendered, err := glamour.Render(buf.String(), "dark")
			if err != nil {
				faint := color.New(color.Faint).SprintFunc()
				fmt.Printf("%s\n", faint("(markdown rendering unavailable, showing plain text)"))
			} else {
				fmt.Print(rendered)
				return nil
			}
		}

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		if _, err := buf.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		if output != "" {
			color.Green("Exported %d day(s) to %s", len(days), output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", export.FormatJSON, "output format: json, yaml or markdown")
	exportCmd.Flags().Bool("render", false, "render markdown for the terminal")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().StringP("period", "p", "", "window to export: today, week, fortnight or month")
}
