package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *DashboardClient
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *DashboardClient) *Handlers {
	return &Handlers{client: client, now: time.Now}
}

// HandleWatchStudents returns the live classroom overview.
func (h *Handlers) HandleWatchStudents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	samples, err := h.client.LatestSamples(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load telemetry: %v", err)), nil
	}
	if len(samples) == 0 {
		return mcp.NewToolResultText("No students reporting."), nil
	}

	now := h.now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d student(s) tracked:\n\n", len(samples))
	for _, s := range samples {
		status := "offline"
		if s.Online(now) {
			status = "online"
		}
		fmt.Fprintf(&sb, "%s [%s]\n", s.User, status)
		fmt.Fprintf(&sb, "  %d wpm, %s, fatigue %d%%, AI risk %.2f\n",
			s.Behavior.WPM, s.Behavior.FlowState, s.Behavior.Fatigue, s.AI)
		if app := latestApp(s); app != "" {
			fmt.Fprintf(&sb, "  active: %s\n", app)
		}
		fmt.Fprintf(&sb, "  last seen: %s\n\n", s.Timestamp.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

// HandleStudentHistory summarizes one student's series.
func (h *Handlers) HandleStudentHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID := req.GetString("student_id", "")
	if studentID == "" {
		return mcp.NewToolResultError("student_id is required"), nil
	}
	limit := req.GetInt("limit", 20)

	samples, err := h.client.History(ctx, studentID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load history: %v", err)), nil
	}
	if len(samples) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No history available for %s.", studentID)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "History for %s (%d samples, oldest first):\n\n", studentID, len(samples))
	for i, s := range samples {
		fmt.Fprintf(&sb, "%3d. %s  %3d wpm  %-10s  risk %.2f  keys %d  pastes %d\n",
			i+1, s.Timestamp.Format("15:04:05"), s.Behavior.WPM, s.Behavior.FlowState,
			s.AI, s.Behavior.Keystrokes, s.Behavior.PasteCount)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleStudentDetail renders the forensic view of one student.
func (h *Handlers) HandleStudentDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID := req.GetString("student_id", "")
	if studentID == "" {
		return mcp.NewToolResultError("student_id is required"), nil
	}

	samples, err := h.client.LatestSamples(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load telemetry: %v", err)), nil
	}

	var sample *telemetry.Sample
	for _, s := range samples {
		if s.User == studentID {
			sample = s
			break
		}
	}
	if sample == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No telemetry for %s.", studentID)), nil
	}

	return mcp.NewToolResultText(formatDetail(sample)), nil
}

// HandleVerifyStudent checks an id against the roster.
func (h *Handlers) HandleVerifyStudent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID := req.GetString("student_id", "")
	if studentID == "" {
		return mcp.NewToolResultError("student_id is required"), nil
	}

	ok, message, err := h.client.Verify(ctx, studentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Verification failed: %v", err)), nil
	}
	if ok {
		return mcp.NewToolResultText(fmt.Sprintf("%s is authorized. %s", studentID, message)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s is NOT authorized. %s", studentID, message)), nil
}

// HandleAddStudent puts an id on the roster.
func (h *Handlers) HandleAddStudent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID := req.GetString("student_id", "")
	if studentID == "" {
		return mcp.NewToolResultError("student_id is required"), nil
	}
	name := req.GetString("name", "")

	if _, err := h.client.AddStudent(ctx, studentID, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add student: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s added to the authorized roster.", studentID)), nil
}

// latestApp returns the most recently seen application of a sample.
func latestApp(s *telemetry.Sample) string {
	var best *telemetry.AppEntry
	for i := range s.Forensic.AppHistory {
		e := &s.Forensic.AppHistory[i]
		if best == nil || e.LastSeen > best.LastSeen {
			best = e
		}
	}
	if best == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", best.App, best.Title)
}

func formatDetail(s *telemetry.Sample) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Student %s at %s\n", s.User, s.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Behavior: %d wpm, %s, %d keystrokes, %d backspaces, %d pastes, fatigue %d%%\n",
		s.Behavior.WPM, s.Behavior.FlowState, s.Behavior.Keystrokes,
		s.Behavior.Backspaces, s.Behavior.PasteCount, s.Behavior.Fatigue)
	fmt.Fprintf(&sb, "AI risk: %.2f\n", s.AI)

	if len(s.Forensic.AppHistory) > 0 {
		sb.WriteString("\nApplications:\n")
		for _, e := range s.Forensic.AppHistory {
			fmt.Fprintf(&sb, "  %s: %s [%s]\n", e.App, e.Title, e.Context)
			for _, tab := range e.Tabs {
				fmt.Fprintf(&sb, "    - %s\n", tab)
			}
		}
	}

	if len(s.Forensic.URLHistory) > 0 {
		sb.WriteString("\nVisited URLs:\n")
		for _, u := range s.Forensic.URLHistory {
			fmt.Fprintf(&sb, "  %s\n", u)
		}
	}

	if len(s.Forensic.ActiveDocuments) > 0 {
		sb.WriteString("\nOpen documents:\n")
		for _, d := range s.Forensic.ActiveDocuments {
			fmt.Fprintf(&sb, "  %s\n", d)
		}
	}

	if s.Forensic.Snapshot.Code != "" {
		fmt.Fprintf(&sb, "\nCode snapshot (%s):\n%s\n",
			s.Forensic.Snapshot.Language, s.Forensic.Snapshot.Code)
	}

	if s.Tech != nil && len(s.Tech.Categories) > 0 {
		sb.WriteString("\nTech stack:\n")
		for group, tags := range s.Tech.Categories {
			fmt.Fprintf(&sb, "  %s: %s\n", group, strings.Join(tags, ", "))
		}
	}

	return sb.String()
}
