// Package replay turns a user's telemetry history into a time-travel view.
//
// The controller holds one user's series and a cursor. The cursor at the last
// index means live mode: new samples keep the view pinned to the newest
// entry. Any earlier index is replay mode and incoming samples no longer move
// the cursor. The rendered view is a pure function of the sample under the
// cursor, so scrubbing back and forth is always consistent.
package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// Mode is the reconciler position relative to the newest sample.
type Mode string

const (
	ModeLive   Mode = "LIVE"
	ModeReplay Mode = "REPLAY"
	ModeEmpty  Mode = "EMPTY"
	ModeError  Mode = "ERROR"
)

// Tone hints how the dashboard should color the mode label.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneMuted   Tone = "muted"
	ToneDanger  Tone = "danger"
)

// ErrNoHistory is returned when the controller holds no samples.
var ErrNoHistory = errors.New("no history loaded")

// View is what the dashboard renders for one cursor position.
type View struct {
	Mode   Mode              `json:"mode"`
	Index  int               `json:"index"`
	Total  int               `json:"total"`
	Label  string            `json:"label"`
	Tone   Tone              `json:"tone"`
	Sample *telemetry.Sample `json:"sample,omitempty"`
}

// Controller reconciles a history slice with a scrub cursor.
type Controller struct {
	history []*telemetry.Sample
	index   int
	failed  bool
}

// NewController creates a controller over a user's history, oldest first.
// The cursor starts pinned to the newest sample.
func NewController(history []*telemetry.Sample) *Controller {
	c := &Controller{}
	c.Reload(history)
	return c
}

// Reload replaces the history. A cursor that was live stays live on the new
// newest sample; a replay cursor keeps its position when it still exists.
func (c *Controller) Reload(history []*telemetry.Sample) {
	wasLive := c.Live()
	c.failed = false
	c.history = history
	switch {
	case len(history) == 0:
		c.index = 0
	case wasLive || c.index >= len(history):
		c.index = len(history) - 1
	}
}

// Fail marks the history as unloadable. Cleared by the next Reload.
func (c *Controller) Fail() {
	c.failed = true
	c.history = nil
	c.index = 0
}

// Live reports whether the cursor is pinned to the newest sample.
func (c *Controller) Live() bool {
	return len(c.history) == 0 || c.index == len(c.history)-1
}

// Len returns the number of samples loaded.
func (c *Controller) Len() int {
	return len(c.history)
}

// Seek moves the cursor, clamped to the history bounds.
func (c *Controller) Seek(index int) {
	if len(c.history) == 0 {
		c.index = 0
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.history)-1 {
		index = len(c.history) - 1
	}
	c.index = index
}

// Back moves the cursor one sample earlier.
func (c *Controller) Back() { c.Seek(c.index - 1) }

// Forward moves the cursor one sample later.
func (c *Controller) Forward() { c.Seek(c.index + 1) }

// GoLive pins the cursor back to the newest sample.
func (c *Controller) GoLive() {
	if len(c.history) > 0 {
		c.index = len(c.history) - 1
	}
}

// View renders the current cursor position.
func (c *Controller) View() View {
	if c.failed {
		return View{Mode: ModeError, Label: "History Error", Tone: ToneDanger}
	}
	if len(c.history) == 0 {
		return View{Mode: ModeEmpty, Label: "No history available", Tone: ToneMuted}
	}

	sample := c.history[c.index]
	at := sample.Timestamp.Format(time.TimeOnly)
	if c.Live() {
		return View{
			Mode:   ModeLive,
			Index:  c.index,
			Total:  len(c.history),
			Label:  fmt.Sprintf("Live (%s)", at),
			Tone:   ToneSuccess,
			Sample: sample,
		}
	}
	return View{
		Mode:   ModeReplay,
		Index:  c.index,
		Total:  len(c.history),
		Label:  fmt.Sprintf("Replay: %s", at),
		Tone:   ToneWarning,
		Sample: sample,
	}
}

// Current returns the sample under the cursor.
func (c *Controller) Current() (*telemetry.Sample, error) {
	if c.failed || len(c.history) == 0 {
		return nil, ErrNoHistory
	}
	return c.history[c.index], nil
}
