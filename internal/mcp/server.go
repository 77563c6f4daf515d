// ABOUTME: MCP server implementation for daybook
// ABOUTME: Provides tools, resources, and prompts for AI agents to read and write the journal

package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/harper/daybook/internal/journal"
)

// Server wraps the MCP server with daybook-specific context
type Server struct {
	mcpServer *server.MCPServer
	journal   *journal.Journal
	now       func() time.Time
}

// NewServer creates a new MCP server instance
func NewServer(j *journal.Journal) *Server {
	s := &Server{
		journal: j,
		now:     time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		"daybook",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
