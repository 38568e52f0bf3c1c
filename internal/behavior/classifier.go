// Package behavior turns raw edit and focus events into a point-in-time
// behavioral summary: words per minute, fatigue, paste detection and a
// derived flow state.
//
// The classifier is session-scoped: counters are monotonic from construction
// and reset only when a new session (and therefore a new classifier) starts.
package behavior

import (
	"math"
	"sync"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// PasteThreshold is the insertion length above which a single content change
// counts as a paste instead of a keystroke.
const PasteThreshold = 50

// Change is one editor content change: the inserted text and the length of
// the replaced range. A deletion arrives as empty text with RemovedLen > 0.
type Change struct {
	Text       string
	RemovedLen int
}

// Classifier accumulates edit events and derives behavior summaries.
// Safe for concurrent use; the sampling ticker and the event source may
// run on different goroutines.
type Classifier struct {
	mu sync.Mutex

	now       func() time.Time
	startTime time.Time

	wpm        int
	keystrokes int
	backspaces int
	pasteCount int

	isFocused     bool
	lastFocusTime time.Time
}

// Option configures the classifier.
type Option func(*Classifier)

// WithClock injects a clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// NewClassifier creates a classifier. The session is considered focused at
// construction time.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		now:       time.Now,
		isFocused: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.now()
	c.lastFocusTime = c.startTime
	return c
}

// Observe classifies one content change at the moment it occurs.
// Every change lands in exactly one bucket: paste, backspace or keystroke.
func (c *Classifier) Observe(change Change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case len(change.Text) > PasteThreshold:
		c.pasteCount++
	case change.Text == "" && change.RemovedLen > 0:
		c.backspaces++
	default:
		c.keystrokes++
	}

	c.recalcWPM()
}

// SetFocused records a focus or blur event. Both directions reset the focus
// timer; flow state relies on continuous focus duration.
func (c *Classifier) SetFocused(focused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isFocused = focused
	c.lastFocusTime = c.now()
}

// recalcWPM recomputes words per minute from total keystrokes.
// Caller holds c.mu. Elapsed time at or below zero leaves wpm unchanged.
func (c *Classifier) recalcWPM() {
	elapsedMin := c.now().Sub(c.startTime).Minutes()
	if elapsedMin > 0 {
		c.wpm = int(math.Round(float64(c.keystrokes) / 5 / elapsedMin))
	}
}

// FlowState derives the current engagement classification. It is evaluated
// from counters and focus timestamps on every call, never stored.
func (c *Classifier) FlowState() telemetry.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flowStateLocked()
}

func (c *Classifier) flowStateLocked() telemetry.FlowState {
	if !c.isFocused {
		return telemetry.FlowDistracted
	}
	focusMin := c.now().Sub(c.lastFocusTime).Minutes()
	if focusMin > 10 && c.wpm > 30 {
		return telemetry.FlowFlow
	}
	if c.wpm < 5 && focusMin > 2 {
		return telemetry.FlowIdle
	}
	return telemetry.FlowNormal
}

// Snapshot returns the current behavioral summary.
func (c *Classifier) Snapshot() telemetry.Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()

	fatigue := 0
	if total := c.keystrokes + c.backspaces; total > 0 {
		fatigue = int(math.Round(float64(c.backspaces) / float64(total) * 100))
	}

	return telemetry.Behavior{
		WPM:        c.wpm,
		Keystrokes: c.keystrokes,
		Backspaces: c.backspaces,
		PasteCount: c.pasteCount,
		Fatigue:    fatigue,
		FlowState:  c.flowStateLocked(),
	}
}
