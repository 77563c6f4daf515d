// ABOUTME: MCP resource providers for daybook
// ABOUTME: Exposes read-only views of the visible week and sync statistics

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/daybook/internal/export"
)

// ResourceData is the standard response format for all resources.
type ResourceData struct {
	Metadata ResourceMetadata  `json:"metadata"`
	Data     interface{}       `json:"data"`
	Links    map[string]string `json:"links"`
}

// ResourceMetadata contains metadata about the resource response.
type ResourceMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Count       int       `json:"count"`
	ResourceURI string    `json:"resource_uri"`
}

func (s *Server) registerResources() {
	s.registerWeekResource()
	s.registerStatsResource()
}

func (s *Server) registerWeekResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "daybook://week",
			Name:        "Visible Week",
			Description: "Items for each visible day, newest day first, with pending flags",
			MIMEType:    "application/json",
		},
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			days := export.Build(s.journal.Window(), s.journal.Days())
			count := 0
			for _, d := range days {
				count += len(d.Items)
			}
			return s.resourceJSON(request.Params.URI, count, days, map[string]string{
				"stats": "daybook://stats",
			})
		},
	)
}

func (s *Server) registerStatsResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "daybook://stats",
			Name:        "Journal Statistics",
			Description: "Counts of days, items and items still waiting for remote confirmation",
			MIMEType:    "application/json",
		},
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			stats := s.journal.Stats()
			data := map[string]interface{}{
				"days":           stats.Days,
				"items":          stats.Items,
				"pending":        stats.Pending,
				"remote_enabled": stats.Remote,
			}
			return s.resourceJSON(request.Params.URI, stats.Items, data, map[string]string{
				"week": "daybook://week",
			})
		},
	)
}

func (s *Server) resourceJSON(uri string, count int, data interface{}, links map[string]string) ([]mcp.ResourceContents, error) {
	response := ResourceData{
		Metadata: ResourceMetadata{
			Timestamp:   s.now(),
			Count:       count,
			ResourceURI: uri,
		},
		Data:  data,
		Links: links,
	}

	jsonData, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
