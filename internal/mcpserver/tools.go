package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the xScout MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolWatchStudents = mcp.NewTool("watch_students",
	mcp.WithDescription(
		"Get the latest telemetry sample for every monitored student. "+
			"Shows online status, typing speed, flow state, fatigue, AI risk score and the active application. "+
			"Use this for a live overview of the classroom."),
)

var ToolStudentHistory = mcp.NewTool("student_history",
	mcp.WithDescription(
		"Get one student's telemetry history, oldest first. "+
			"Each entry carries typing counters, flow state and AI risk, so you can see how the session evolved over time."),
	mcp.WithString("student_id",
		mcp.Required(),
		mcp.Description("The student id to inspect (e.g. 'student_042')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of samples to return (default 20, newest kept)")),
)

var ToolStudentDetail = mcp.NewTool("student_detail",
	mcp.WithDescription(
		"Get the full latest sample for one student: window history with browser tabs, "+
			"visited URLs, the bounded code snapshot, the project tree and the detected tech stack."),
	mcp.WithString("student_id",
		mcp.Required(),
		mcp.Description("The student id to inspect")),
)

var ToolVerifyStudent = mcp.NewTool("verify_student",
	mcp.WithDescription(
		"Check whether a student id is authorized to submit telemetry. "+
			"Returns the verification outcome the agent would see at session start."),
	mcp.WithString("student_id",
		mcp.Required(),
		mcp.Description("The student id to verify")),
)

var ToolAddStudent = mcp.NewTool("add_student",
	mcp.WithDescription(
		"Add a student id to the authorized roster, or reactivate a revoked one. "+
			"Requires the server to be configured with the admin secret."),
	mcp.WithString("student_id",
		mcp.Required(),
		mcp.Description("The student id to authorize")),
	mcp.WithString("name",
		mcp.Description("Optional display name for the roster entry")),
)
