// ABOUTME: Export of the visible window as JSON, YAML or Markdown
// ABOUTME: Builds a flat presentation model from the journal's day mapping

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/daybook/internal/models"
	"github.com/harper/daybook/internal/timeutil"
)

// Supported formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Item is the exported form of a journal item.
type Item struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Link      string    `json:"link,omitempty" yaml:"link,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Pending   bool      `json:"pending" yaml:"pending"`
}

// Day is one exported day.
type Day struct {
	Key   string `json:"day" yaml:"day"`
	Label string `json:"label" yaml:"label"`
	Items []Item `json:"items" yaml:"items"`
}

// Build converts the given window of day keys into exported days, keeping
// the window's order. Days without items are included with an empty list.
func Build(window []string, days models.Days) []Day {
	out := make([]Day, 0, len(window))
	for _, key := range window {
		day := Day{Key: key, Label: timeutil.DisplayLabel(key), Items: []Item{}}
		for _, it := range days[key] {
			day.Items = append(day.Items, Item{
				ID:        it.ID.String(),
				Title:     it.Title,
				Link:      it.Link,
				CreatedAt: it.CreatedTime().UTC(),
				Pending:   it.Pending(),
			})
		}
		out = append(out, day)
	}
	return out
}

// Write renders days to w in format.
func Write(w io.Writer, format string, days []Day) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return JSON(w, days)
	case FormatYAML, "yml":
		return YAML(w, days)
	case FormatMarkdown, "md":
		_, err := io.WriteString(w, Markdown(days))
		return err
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
}

// JSON writes indented JSON.
func JSON(w io.Writer, days []Day) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(days)
}

// YAML writes a YAML document.
func YAML(w io.Writer, days []Day) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(days); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown returns a Markdown document with one section per day.
func Markdown(days []Day) string {
	var sb strings.Builder
	sb.WriteString("# Daybook\n")
	for _, day := range days {
		fmt.Fprintf(&sb, "\n## %s\n\n", day.Label)
		if len(day.Items) == 0 {
			sb.WriteString("_Nothing recorded._\n")
			continue
		}
		for _, it := range day.Items {
			title := it.Title
			if it.Link != "" {
				title = fmt.Sprintf("[%s](%s)", it.Title, it.Link)
			}
			fmt.Fprintf(&sb, "- %s", title)
			if it.Pending {
				sb.WriteString(" _(not synced)_")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
