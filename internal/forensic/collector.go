// Package forensic aggregates active-window observations and editor document
// state into a deduplicated per-application history plus a bounded code
// snapshot.
//
// A Collector belongs to exactly one monitoring session. It is constructed
// when the session starts and discarded when it ends; nothing here is
// process-global, so tests and multi-user simulations can run collectors
// side by side.
package forensic

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// EditorApp is the synthetic app-history entry name for the editor itself.
const EditorApp = "Editor"

// Window is one active-window observation.
type Window struct {
	App   string
	Title string
}

// WindowProbe supplies the currently active window. Probe failures are
// logged by the caller and leave collector state untouched.
type WindowProbe interface {
	ActiveWindow(ctx context.Context) (Window, error)
}

// Document is an open editor document offered to Scan.
type Document struct {
	Path      string
	Language  string
	Text      string
	LineCount int
	Focused   bool
}

// appState is the mutable accumulator behind one telemetry.AppEntry.
type appState struct {
	entry telemetry.AppEntry
}

// Collector owns the per-application history map and the session URL set.
// Safe for concurrent use; the window probe and the sampling loop tick
// independently.
type Collector struct {
	mu sync.Mutex

	now func() time.Time

	visited      map[string]bool
	visitedOrder []string

	apps     map[string]*appState
	appOrder []string

	urls     map[string]bool
	urlOrder []string
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithClock injects a clock (for tests).
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

// NewCollector creates an empty session-scoped collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		now:     time.Now,
		visited: make(map[string]bool),
		apps:    make(map[string]*appState),
		urls:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackWindow folds one active-window observation into the history map.
func (c *Collector) TrackWindow(w Window) {
	app := w.App
	if app == "" {
		app = "Unknown"
	}
	title := w.Title
	if title == "" {
		title = "Untitled"
	}

	isBrowser := IsBrowser(app)
	tab := title
	if isBrowser {
		var url string
		tab, url = ExtractTab(title)
		if url != "" {
			c.addURL(url)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	state, ok := c.apps[app]
	if !ok {
		c.apps[app] = &appState{entry: telemetry.AppEntry{
			App:       app,
			Title:     title,
			Context:   ClassifyContext(app),
			Time:      now.Format("15:04:05"),
			Tabs:      []string{tab},
			LastSeen:  now.UnixMilli(),
			IsBrowser: isBrowser,
		}}
		c.appOrder = append(c.appOrder, app)
		return
	}

	state.entry.Title = title
	state.entry.Time = now.Format("15:04:05")
	state.entry.LastSeen = now.UnixMilli()
	state.entry.Tabs = appendTab(state.entry.Tabs, tab)
}

// appendTab adds tab if absent and evicts the oldest entries past MaxTabs.
func appendTab(tabs []string, tab string) []string {
	for _, existing := range tabs {
		if existing == tab {
			return tabs
		}
	}
	tabs = append(tabs, tab)
	if len(tabs) > telemetry.MaxTabs {
		tabs = tabs[len(tabs)-telemetry.MaxTabs:]
	}
	return tabs
}

// addURL records a URL once per session, preserving first-seen order.
func (c *Collector) addURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.urls[url] {
		c.urls[url] = true
		c.urlOrder = append(c.urlOrder, url)
	}
}

// Scan folds the current editor document state into the history and returns
// the immutable forensic summary for this instant.
//
// The synthetic editor entry's tabs are replaced wholesale by the open
// document list on every scan; window-probe entries append instead. The two
// behaviors are intentionally different per entry source.
func (c *Collector) Scan(docs []Document) telemetry.Forensic {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	paths := make([]string, 0, len(docs))
	var focused *Document
	for i := range docs {
		paths = append(paths, docs[i].Path)
		if !c.visited[docs[i].Path] {
			c.visited[docs[i].Path] = true
			c.visitedOrder = append(c.visitedOrder, docs[i].Path)
		}
		if docs[i].Focused && focused == nil {
			focused = &docs[i]
		}
	}

	if len(docs) > 0 {
		state, ok := c.apps[EditorApp]
		if !ok {
			c.apps[EditorApp] = &appState{entry: telemetry.AppEntry{
				App:       EditorApp,
				Title:     "Editor - Active",
				Context:   telemetry.ContextDevelopment,
				Time:      now.Format("15:04:05"),
				Tabs:      append([]string(nil), paths...),
				LastSeen:  now.UnixMilli(),
				IsBrowser: false,
			}}
			c.appOrder = append(c.appOrder, EditorApp)
		} else {
			state.entry.Tabs = append([]string(nil), paths...)
			state.entry.Time = now.Format("15:04:05")
			state.entry.LastSeen = now.UnixMilli()
		}
	}

	var snapshot telemetry.CodeSnapshot
	if focused != nil {
		snapshot = boundedSnapshot(focused, now)
	}

	return telemetry.Forensic{
		ActiveDocuments: paths,
		History:         append([]string(nil), c.visitedOrder...),
		AppHistory:      c.appHistoryLocked(),
		URLHistory:      append([]string(nil), c.urlOrder...),
		Snapshot:        snapshot,
	}
}

// boundedSnapshot captures the focused document's text, truncated to
// MaxSnapshotChars and then MaxSnapshotLines with a marker when the document
// is longer.
func boundedSnapshot(doc *Document, now time.Time) telemetry.CodeSnapshot {
	code := doc.Text
	if len(code) > telemetry.MaxSnapshotChars {
		code = code[:telemetry.MaxSnapshotChars]
	}
	if doc.LineCount > telemetry.MaxSnapshotLines {
		lines := strings.Split(code, "\n")
		if len(lines) > telemetry.MaxSnapshotLines {
			lines = lines[:telemetry.MaxSnapshotLines]
		}
		code = strings.Join(lines, "\n") + "\n... (truncated)"
	}
	return telemetry.CodeSnapshot{
		Code:      code,
		Language:  doc.Language,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// appHistoryLocked renders the app map as an array in first-seen order.
// Caller holds c.mu. Entries are deep-copied so stored samples stay immutable.
func (c *Collector) appHistoryLocked() []telemetry.AppEntry {
	out := make([]telemetry.AppEntry, 0, len(c.appOrder))
	for _, app := range c.appOrder {
		entry := c.apps[app].entry
		entry.Tabs = append([]string(nil), entry.Tabs...)
		out = append(out, entry)
	}
	return out
}
