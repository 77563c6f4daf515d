// ABOUTME: MCP prompt definitions and handlers
// ABOUTME: Provides workflow templates for reviewing and logging the week

package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/daybook/internal/timeutil"
)

func (s *Server) registerPrompts() {
	s.registerWeeklyReviewPrompt()
	s.registerLogDayPrompt()
}

func (s *Server) registerWeeklyReviewPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "weekly-review",
			Description: "Review the visible week of journal items and summarise what happened",
			Arguments:   []mcp.PromptArgument{},
		},
		s.handleWeeklyReview,
	)
}

func (s *Server) handleWeeklyReview(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	window := s.journal.Window()
	first, last := "", ""
	if len(window) > 0 {
		first = timeutil.DisplayLabel(window[len(window)-1])
		last = timeutil.DisplayLabel(window[0])
	}

	template := fmt.Sprintf(`# Weekly Review (%s to %s)

## Step 1: Sync
Call the sync_now tool so the journal includes items recorded on other devices.

## Step 2: Read the week
Read the daybook://week resource. Each day lists its items in the order they were recorded.
Items with "pending": true have not reached the remote store yet.

## Step 3: Summarise
- Highlights: the two or three most notable items
- Patterns: recurring meetings, habits, or gaps
- Quiet days: days with no items
- Follow-ups: linked items worth revisiting

## Step 4: Fill gaps
If the user remembers something missing, record it with add_item using the right day key.
`, first, last)

	return &mcp.GetPromptResult{
		Description: "Weekly journal review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: template,
				},
			},
		},
	}, nil
}

func (s *Server) registerLogDayPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "log-day",
			Description: "Capture what happened today as journal items",
			Arguments: []mcp.PromptArgument{
				{
					Name:        "notes",
					Description: "Free-form notes about the day",
					Required:    false,
				},
			},
		},
		s.handleLogDay,
	)
}

func (s *Server) handleLogDay(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	today := timeutil.DayKey(s.now())
	notes := req.Params.Arguments["notes"]

	template := fmt.Sprintf(`# Log %s

Turn the notes below into short journal items for day %s.
- One item per event, meeting, or thing learned
- Keep titles under 80 characters
- Put any URL in the link field rather than the title
- Call add_item once per item, then list_week with period "today" to confirm

Notes:
%s
`, timeutil.DisplayLabel(today), today, notes)

	return &mcp.GetPromptResult{
		Description: "Log today's events",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: template,
				},
			},
		},
	}, nil
}
