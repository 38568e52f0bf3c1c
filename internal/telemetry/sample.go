// Package telemetry defines the wire and storage contracts for student
// activity samples.
//
// A Sample is the unit of ingestion: one user, one timestamp, one behavioral
// summary, one forensic summary, one externally-computed AI risk score.
// Samples are immutable once stored; everything downstream (the live table,
// the replay slider, the websocket feed) is a pure function of stored samples.
package telemetry

import (
	"time"
)

// OnlineWindow is the liveness window: a sample older than this is offline.
// Applied identically everywhere a sample's liveness is judged.
const OnlineWindow = 10 * time.Second

// Snapshot bounds for the captured document text.
const (
	MaxSnapshotChars = 2000
	MaxSnapshotLines = 50
)

// MaxTabs caps the per-application tab history. Oldest entries are evicted
// first once the cap is exceeded.
const MaxTabs = 30

// FlowState classifies user engagement from focus continuity and typing speed.
type FlowState string

const (
	FlowNormal     FlowState = "NORMAL"
	FlowFlow       FlowState = "FLOW"
	FlowDistracted FlowState = "DISTRACTED"
	FlowIdle       FlowState = "IDLE"
)

// Valid reports whether s is one of the four known flow states.
func (s FlowState) Valid() bool {
	switch s {
	case FlowNormal, FlowFlow, FlowDistracted, FlowIdle:
		return true
	}
	return false
}

// AppContext is the inferred usage context of an observed application.
type AppContext string

const (
	ContextDevelopment   AppContext = "Development"
	ContextWebBrowsing   AppContext = "Web Browsing"
	ContextCommunication AppContext = "Communication"
	ContextProductivity  AppContext = "Productivity"
	ContextGeneral       AppContext = "General Use"
)

// Behavior is a point-in-time summary of typing activity.
// Counters are monotonic for the lifetime of one monitoring session.
type Behavior struct {
	WPM        int       `json:"wpm"`
	Keystrokes int       `json:"keystrokes"`
	Backspaces int       `json:"backspaces"`
	PasteCount int       `json:"pasteCount"`
	Fatigue    int       `json:"fatigue"` // 0-100, share of corrective actions
	FlowState  FlowState `json:"flowState"`
}

// AppEntry is the observed history for one distinct application.
// App is unique within a sample's appHistory; Tabs holds at most MaxTabs
// distinct entries.
type AppEntry struct {
	App       string     `json:"app"`
	Title     string     `json:"title"`
	Context   AppContext `json:"context"`
	Time      string     `json:"time"` // display time of last observation
	Tabs      []string   `json:"tabs"`
	LastSeen  int64      `json:"lastSeen"` // unix milliseconds
	IsBrowser bool       `json:"isBrowser"`
}

// CodeSnapshot is a bounded capture of the focused document.
type CodeSnapshot struct {
	Code      string `json:"code,omitempty"`
	Language  string `json:"language,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Forensic aggregates window, document and URL observations.
type Forensic struct {
	ActiveDocuments []string     `json:"activeDocuments"`
	History         []string     `json:"history"` // every document ever seen this session
	AppHistory      []AppEntry   `json:"appHistory"`
	URLHistory      []string     `json:"urlHistory"`
	Snapshot        CodeSnapshot `json:"snapshot"`
}

// NodeType distinguishes files from folders in a project tree.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// ProjectNode is one node of the workspace tree. Children is present only
// for folders. The tree is depth-bounded at collection time.
type ProjectNode struct {
	Name     string         `json:"name"`
	Type     NodeType       `json:"type"`
	Children []*ProjectNode `json:"children,omitempty"`
}

// TechMeta holds project metadata discovered alongside the tech stack.
type TechMeta struct {
	Author  string `json:"author"`
	Created string `json:"created"`
	Git     bool   `json:"git"`
}

// TechStack groups detected technologies by tag group.
type TechStack struct {
	Categories map[string][]string `json:"categories"`
	Meta       TechMeta            `json:"meta"`
}

// Sample is one ingested telemetry pulse. Immutable once stored.
// The AI field is an opaque risk score in [0,1] computed by an external
// scorer; this system never derives it.
type Sample struct {
	Timestamp time.Time    `json:"timestamp"`
	User      string       `json:"user"`
	Behavior  Behavior     `json:"behavior"`
	Forensic  Forensic     `json:"forensic"`
	Project   *ProjectNode `json:"project"`
	Tech      *TechStack   `json:"tech"`
	AI        float64      `json:"ai"`
}

// Online reports whether a sample taken at ts counts as live at now.
// The boundary at exactly OnlineWindow is offline.
func Online(ts, now time.Time) bool {
	return now.Sub(ts) < OnlineWindow
}

// Online reports whether the sample counts as live at now.
func (s *Sample) Online(now time.Time) bool {
	return Online(s.Timestamp, now)
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate a stored sample.
func (s *Sample) Clone() *Sample {
	cp := *s
	cp.Forensic.ActiveDocuments = append([]string(nil), s.Forensic.ActiveDocuments...)
	cp.Forensic.History = append([]string(nil), s.Forensic.History...)
	cp.Forensic.URLHistory = append([]string(nil), s.Forensic.URLHistory...)
	cp.Forensic.AppHistory = make([]AppEntry, len(s.Forensic.AppHistory))
	for i, e := range s.Forensic.AppHistory {
		e.Tabs = append([]string(nil), e.Tabs...)
		cp.Forensic.AppHistory[i] = e
	}
	cp.Project = s.Project.clone()
	if s.Tech != nil {
		tech := *s.Tech
		tech.Categories = make(map[string][]string, len(s.Tech.Categories))
		for k, v := range s.Tech.Categories {
			tech.Categories[k] = append([]string(nil), v...)
		}
		cp.Tech = &tech
	}
	return &cp
}

func (n *ProjectNode) clone() *ProjectNode {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Children != nil {
		cp.Children = make([]*ProjectNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.clone()
		}
	}
	return &cp
}
