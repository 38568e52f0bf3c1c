package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all xScout tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("xscout", "1.0.0")
	client := NewDashboardClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolWatchStudents, h.HandleWatchStudents)
	s.AddTool(ToolStudentHistory, h.HandleStudentHistory)
	s.AddTool(ToolStudentDetail, h.HandleStudentDetail)
	s.AddTool(ToolVerifyStudent, h.HandleVerifyStudent)
	s.AddTool(ToolAddStudent, h.HandleAddStudent)

	return s
}
