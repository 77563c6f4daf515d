// ABOUTME: MCP tool definitions and handlers for journal items
// ABOUTME: Lists the week, adds and removes items, and triggers a remote sync

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/daybook/internal/export"
	"github.com/harper/daybook/internal/models"
	"github.com/harper/daybook/internal/timeutil"
)

type ListWeekInput struct {
	Period *string `json:"period,omitempty"`
}

type ListWeekOutput struct {
	Days    []export.Day `json:"days"`
	Count   int          `json:"count"`
	Pending int          `json:"pending"`
}

type AddItemInput struct {
	Title string  `json:"title"`
	Link  *string `json:"link,omitempty"`
	Day   *string `json:"day,omitempty"`
}

type AddItemOutput struct {
	Item    export.Item `json:"item"`
	Day     string      `json:"day"`
	Message string      `json:"message"`
}

type RemoveItemInput struct {
	ID  string  `json:"id"`
	Day *string `json:"day,omitempty"`
}

type RemoveItemOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type SyncNowOutput struct {
	RemoteEnabled bool   `json:"remote_enabled"`
	Fetched       bool   `json:"fetched"`
	Uploaded      int    `json:"uploaded"`
	StillPending  int    `json:"still_pending"`
	Message       string `json:"message"`
}

// Tool registration

func (s *Server) registerTools() {
	s.registerListWeekTool()
	s.registerAddItemTool()
	s.registerRemoveItemTool()
	s.registerSyncNowTool()
}

func (s *Server) registerListWeekTool() {
	tool := mcp.Tool{
		Name:        "list_week",
		Description: "List journal items for the visible days, newest day first. Items within a day are ordered by creation time. Items marked pending have not been confirmed by the remote store yet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"period": map[string]interface{}{
					"type":        "string",
					"description": "Optional window: 'today', 'week' (default), 'fortnight' or 'month'",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleListWeek)
}

func (s *Server) registerAddItemTool() {
	tool := mcp.Tool{
		Name:        "add_item",
		Description: "Add an item to a day. The item is saved locally right away and uploaded to the remote store in the background. Returns the new item with its identity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Item title. Example: 'Lunch with Alex'",
				},
				"link": map[string]interface{}{
					"type":        "string",
					"description": "Optional URL related to the item",
				},
				"day": map[string]interface{}{
					"type":        "string",
					"description": "Day key in YYYY-MM-DD format, or 'today'. Defaults to today.",
				},
			},
			Required: []string{"title"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleAddItem)
}

func (s *Server) registerRemoveItemTool() {
	tool := mcp.Tool{
		Name:        "remove_item",
		Description: "Remove an item by its identity or a unique identity prefix (at least 6 characters). The item is removed locally immediately; confirmed items are also removed from the remote store.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Item identity as returned by list_week",
				},
				"day": map[string]interface{}{
					"type":        "string",
					"description": "Optional day key the item belongs to",
				},
			},
			Required: []string{"id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleRemoveItem)
}

func (s *Server) registerSyncNowTool() {
	tool := mcp.Tool{
		Name:        "sync_now",
		Description: "Fetch the visible days from the remote store, merge them into the local journal and upload any pending items.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
	s.mcpServer.AddTool(tool, s.handleSyncNow)
}

// Tool handlers

func (s *Server) handleListWeek(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListWeekInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	window := s.journal.Window()
	if input.Period != nil && *input.Period != "" {
		size, ok := timeutil.ParsePeriod(*input.Period)
		if !ok {
			return nil, fmt.Errorf("unknown period %q: use today, week, fortnight or month", *input.Period)
		}
		window = timeutil.VisibleDayKeys(s.now(), size)
	}

	days := export.Build(window, s.journal.Days())
	output := ListWeekOutput{Days: days}
	for _, d := range days {
		output.Count += len(d.Items)
		for _, it := range d.Items {
			if it.Pending {
				output.Pending++
			}
		}
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAddItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input AddItemInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	day := s.resolveDay(input.Day)
	link := ""
	if input.Link != nil {
		link = *input.Link
	}

	item, err := s.journal.AddItem(day, input.Title, link)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	exported := export.Build([]string{day}, models.Days{day: {item}})[0].Items[0]
	output := AddItemOutput{
		Item:    exported,
		Day:     day,
		Message: fmt.Sprintf("Added %q to %s", item.Title, timeutil.DisplayLabel(day)),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRemoveItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RemoveItemInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(input.ID) == "" {
		return nil, fmt.Errorf("id is required")
	}

	day, item, err := s.journal.Resolve(input.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if input.Day != nil && *input.Day != "" && *input.Day != day {
		return nil, fmt.Errorf("item %s is on %s, not %s", input.ID, day, *input.Day)
	}

	removed, err := s.journal.RemoveItem(day, item.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}

	output := RemoveItemOutput{
		Success: removed,
		ID:      item.ID.String(),
		Message: fmt.Sprintf("Removed %q from %s", item.Title, timeutil.DisplayLabel(day)),
	}
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSyncNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output := SyncNowOutput{RemoteEnabled: s.journal.RemoteEnabled()}

	if output.RemoteEnabled {
		output.Fetched = s.journal.Refresh(ctx)
		output.Uploaded = s.journal.UploadPending()
		s.journal.Wait()
	}
	output.StillPending = s.journal.Days().PendingCount()

	switch {
	case !output.RemoteEnabled:
		output.Message = "Remote sync is disabled; items are kept locally"
	case !output.Fetched:
		output.Message = "Remote store unreachable; local data unchanged"
	default:
		output.Message = fmt.Sprintf("Synced; %d pending item(s) remain", output.StillPending)
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// resolveDay maps an optional day argument to a day key, defaulting to today.
func (s *Server) resolveDay(day *string) string {
	if day == nil {
		return timeutil.DayKey(s.now())
	}
	switch strings.ToLower(strings.TrimSpace(*day)) {
	case "", "today":
		return timeutil.DayKey(s.now())
	case "yesterday":
		return timeutil.DayKey(s.now().AddDate(0, 0, -1))
	default:
		return strings.TrimSpace(*day)
	}
}
