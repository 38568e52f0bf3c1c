package forensic

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestTrackWindow_NewAndExistingApp(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))

	c.TrackWindow(Window{App: "Google Chrome", Title: "github.com - Google Chrome"})
	c.TrackWindow(Window{App: "Google Chrome", Title: "stackoverflow.com - Google Chrome"})
	c.TrackWindow(Window{App: "Slack", Title: "general | Slack"})

	out := c.Scan(nil)
	if len(out.AppHistory) != 2 {
		t.Fatalf("appHistory length = %d, want 2", len(out.AppHistory))
	}

	chrome := out.AppHistory[0]
	if chrome.App != "Google Chrome" {
		t.Errorf("first entry app = %q", chrome.App)
	}
	if len(chrome.Tabs) != 2 {
		t.Errorf("chrome tabs = %v, want 2 entries", chrome.Tabs)
	}
	if chrome.Title != "stackoverflow.com - Google Chrome" {
		t.Errorf("title should track latest observation, got %q", chrome.Title)
	}
	if !chrome.IsBrowser {
		t.Error("chrome should be flagged as browser")
	}
	if chrome.Context != telemetry.ContextWebBrowsing {
		t.Errorf("chrome context = %s", chrome.Context)
	}

	if got := out.AppHistory[1].Context; got != telemetry.ContextCommunication {
		t.Errorf("slack context = %s", got)
	}

	if len(out.URLHistory) != 2 {
		t.Errorf("urlHistory = %v, want 2 domains", out.URLHistory)
	}
}

func TestTrackWindow_TabDedupeAndCap(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))

	// Duplicate observations collapse to one tab.
	for i := 0; i < 5; i++ {
		c.TrackWindow(Window{App: "Firefox", Title: "example.com - Mozilla Firefox"})
	}
	out := c.Scan(nil)
	if got := len(out.AppHistory[0].Tabs); got != 1 {
		t.Fatalf("tabs after duplicates = %d, want 1", got)
	}

	// Flood with distinct tabs: cap at 30, oldest evicted first.
	for i := 0; i < 45; i++ {
		c.TrackWindow(Window{App: "Firefox", Title: fmt.Sprintf("site%03d.com - Mozilla Firefox", i)})
	}
	out = c.Scan(nil)
	tabs := out.AppHistory[0].Tabs
	if len(tabs) != telemetry.MaxTabs {
		t.Fatalf("tabs = %d, want %d", len(tabs), telemetry.MaxTabs)
	}

	seen := make(map[string]bool)
	for _, tab := range tabs {
		if seen[tab] {
			t.Errorf("duplicate tab %q", tab)
		}
		seen[tab] = true
	}

	// The newest observation survives; the earliest flood entries are gone.
	if tabs[len(tabs)-1] != "site044.com" {
		t.Errorf("newest tab = %q, want site044.com", tabs[len(tabs)-1])
	}
	if seen["example.com"] || seen["site000.com"] {
		t.Error("oldest tabs should have been evicted")
	}
}

func TestTrackWindow_UnknownFields(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))
	c.TrackWindow(Window{})

	out := c.Scan(nil)
	if len(out.AppHistory) != 1 {
		t.Fatalf("appHistory length = %d", len(out.AppHistory))
	}
	if out.AppHistory[0].App != "Unknown" {
		t.Errorf("app = %q, want Unknown", out.AppHistory[0].App)
	}
	if out.AppHistory[0].Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", out.AppHistory[0].Title)
	}
}

func TestScan_EditorEntryReplacesTabs(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))

	c.Scan([]Document{
		{Path: "/ws/a.go"},
		{Path: "/ws/b.go"},
	})
	out := c.Scan([]Document{
		{Path: "/ws/c.go"},
	})

	var editor *telemetry.AppEntry
	for i := range out.AppHistory {
		if out.AppHistory[i].App == EditorApp {
			editor = &out.AppHistory[i]
		}
	}
	if editor == nil {
		t.Fatal("no editor entry")
	}
	// Replace semantics: tabs are exactly the current open-document list.
	if len(editor.Tabs) != 1 || editor.Tabs[0] != "/ws/c.go" {
		t.Errorf("editor tabs = %v, want [/ws/c.go]", editor.Tabs)
	}

	// History keeps everything ever seen, in first-seen order.
	want := []string{"/ws/a.go", "/ws/b.go", "/ws/c.go"}
	if len(out.History) != len(want) {
		t.Fatalf("history = %v", out.History)
	}
	for i, p := range want {
		if out.History[i] != p {
			t.Errorf("history[%d] = %q, want %q", i, out.History[i], p)
		}
	}
}

func TestScan_SnapshotBounds(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))

	longLine := strings.Repeat("x", 3000)
	out := c.Scan([]Document{{
		Path:      "/ws/big.py",
		Language:  "python",
		Text:      longLine,
		LineCount: 1,
		Focused:   true,
	}})
	if got := len(out.Snapshot.Code); got != telemetry.MaxSnapshotChars {
		t.Errorf("snapshot length = %d, want %d", got, telemetry.MaxSnapshotChars)
	}
	if out.Snapshot.Language != "python" {
		t.Errorf("language = %q", out.Snapshot.Language)
	}

	// Many short lines: truncated to 50 lines plus marker.
	manyLines := strings.Repeat("y\n", 100)
	out = c.Scan([]Document{{
		Path:      "/ws/lines.txt",
		Text:      manyLines,
		LineCount: 100,
		Focused:   true,
	}})
	if !strings.HasSuffix(out.Snapshot.Code, "... (truncated)") {
		t.Error("expected truncation marker")
	}
	body := strings.TrimSuffix(out.Snapshot.Code, "\n... (truncated)")
	if got := len(strings.Split(body, "\n")); got != telemetry.MaxSnapshotLines {
		t.Errorf("snapshot lines = %d, want %d", got, telemetry.MaxSnapshotLines)
	}
}

func TestScan_NoFocusedDocument(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))
	out := c.Scan([]Document{{Path: "/ws/a.go"}})
	if out.Snapshot.Code != "" || out.Snapshot.Language != "" {
		t.Errorf("snapshot should be empty without a focused document: %+v", out.Snapshot)
	}
}

func TestScan_OutputIsolatedFromLaterMutation(t *testing.T) {
	c := NewCollector(WithClock(fixedClock()))
	c.TrackWindow(Window{App: "Firefox", Title: "one.com - Mozilla Firefox"})

	first := c.Scan(nil)
	c.TrackWindow(Window{App: "Firefox", Title: "two.com - Mozilla Firefox"})

	if len(first.AppHistory[0].Tabs) != 1 {
		t.Error("earlier scan output must not change when the collector moves on")
	}
}
