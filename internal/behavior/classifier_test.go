package behavior

import (
	"strings"
	"testing"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// fakeClock lets tests control elapsed and focus time.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClassifier() (*Classifier, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	return NewClassifier(WithClock(clock.now)), clock
}

func TestObserve_EventBuckets(t *testing.T) {
	c, _ := newTestClassifier()

	c.Observe(Change{Text: "a"})                                      // keystroke
	c.Observe(Change{Text: "", RemovedLen: 1})                        // backspace
	c.Observe(Change{Text: strings.Repeat("x", 51)})                  // paste
	c.Observe(Change{Text: strings.Repeat("x", 50)})                  // exactly 50: keystroke
	c.Observe(Change{Text: "", RemovedLen: 0})                        // empty insert: keystroke
	c.Observe(Change{Text: "y", RemovedLen: 3})                       // replacement: keystroke
	c.Observe(Change{Text: strings.Repeat("z", 100), RemovedLen: 10}) // paste wins

	b := c.Snapshot()
	if b.Keystrokes != 4 {
		t.Errorf("keystrokes = %d, want 4", b.Keystrokes)
	}
	if b.Backspaces != 1 {
		t.Errorf("backspaces = %d, want 1", b.Backspaces)
	}
	if b.PasteCount != 2 {
		t.Errorf("pasteCount = %d, want 2", b.PasteCount)
	}

	// Conservation: every event counted exactly once.
	if b.Keystrokes+b.Backspaces+b.PasteCount != 7 {
		t.Errorf("event count mismatch: %d+%d+%d != 7", b.Keystrokes, b.Backspaces, b.PasteCount)
	}
}

func TestWPM(t *testing.T) {
	c, clock := newTestClassifier()

	// 100 keystrokes in the first instant: elapsed is zero, wpm stays 0.
	for i := 0; i < 100; i++ {
		c.Observe(Change{Text: "a"})
	}
	if got := c.Snapshot().WPM; got != 0 {
		t.Errorf("wpm with zero elapsed = %d, want 0", got)
	}

	// After 2 minutes another 100 keystrokes: 200/5 words over 2 min = 20 wpm.
	clock.advance(2 * time.Minute)
	for i := 0; i < 100; i++ {
		c.Observe(Change{Text: "a"})
	}
	if got := c.Snapshot().WPM; got != 20 {
		t.Errorf("wpm = %d, want 20", got)
	}
}

func TestFatigue(t *testing.T) {
	c, _ := newTestClassifier()

	if got := c.Snapshot().Fatigue; got != 0 {
		t.Errorf("fatigue with no events = %d, want 0", got)
	}

	for i := 0; i < 75; i++ {
		c.Observe(Change{Text: "a"})
	}
	for i := 0; i < 25; i++ {
		c.Observe(Change{Text: "", RemovedLen: 1})
	}

	b := c.Snapshot()
	if b.Fatigue != 25 {
		t.Errorf("fatigue = %d, want 25", b.Fatigue)
	}
	if b.Fatigue < 0 || b.Fatigue > 100 {
		t.Errorf("fatigue %d outside [0,100]", b.Fatigue)
	}

	// Pastes do not influence fatigue.
	c.Observe(Change{Text: strings.Repeat("p", 60)})
	if got := c.Snapshot().Fatigue; got != 25 {
		t.Errorf("fatigue after paste = %d, want 25", got)
	}
}

func TestFlowState_Precedence(t *testing.T) {
	t.Run("blur always wins", func(t *testing.T) {
		c, clock := newTestClassifier()
		clock.advance(time.Minute)
		c.SetFocused(false)
		clock.advance(20 * time.Minute)
		if got := c.FlowState(); got != telemetry.FlowDistracted {
			t.Errorf("blurred state = %s, want DISTRACTED", got)
		}
	})

	t.Run("flow", func(t *testing.T) {
		c, clock := newTestClassifier()
		// 31 wpm over 11 minutes needs 31*5*11 keystrokes observed at the end.
		clock.advance(11 * time.Minute)
		for i := 0; i < 31*5*11; i++ {
			c.Observe(Change{Text: "a"})
		}
		if got := c.FlowState(); got != telemetry.FlowFlow {
			t.Errorf("state = %s, want FLOW (wpm=%d)", got, c.Snapshot().WPM)
		}
	})

	t.Run("idle", func(t *testing.T) {
		c, clock := newTestClassifier()
		clock.advance(3 * time.Minute)
		for i := 0; i < 45; i++ { // 45/5 words over 3 min = 3 wpm
			c.Observe(Change{Text: "a"})
		}
		if got := c.FlowState(); got != telemetry.FlowIdle {
			t.Errorf("state = %s, want IDLE (wpm=%d)", got, c.Snapshot().WPM)
		}
	})

	t.Run("normal", func(t *testing.T) {
		c, clock := newTestClassifier()
		clock.advance(time.Minute)
		for i := 0; i < 50; i++ { // 10 wpm, 1 minute of focus
			c.Observe(Change{Text: "a"})
		}
		if got := c.FlowState(); got != telemetry.FlowNormal {
			t.Errorf("state = %s, want NORMAL (wpm=%d)", got, c.Snapshot().WPM)
		}
	})

	t.Run("refocus resets focus timer", func(t *testing.T) {
		c, clock := newTestClassifier()
		clock.advance(15 * time.Minute)
		c.SetFocused(false)
		c.SetFocused(true)
		// Focus duration restarted; high wpm alone is not FLOW.
		for i := 0; i < 31*5*15; i++ {
			c.Observe(Change{Text: "a"})
		}
		if got := c.FlowState(); got != telemetry.FlowNormal {
			t.Errorf("state after refocus = %s, want NORMAL", got)
		}
	})
}
