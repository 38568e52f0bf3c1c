package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xscout-labs/xscout/internal/behavior"
	"github.com/xscout-labs/xscout/internal/config"
	"github.com/xscout-labs/xscout/internal/forensic"
	"github.com/xscout-labs/xscout/internal/telemetry"
)

type fakeDashboard struct {
	mu       sync.Mutex
	allow    bool
	verifyN  int
	samples  []*telemetry.Sample
	submitCh chan struct{}
}

func newFakeDashboard(allow bool) *fakeDashboard {
	return &fakeDashboard{allow: allow, submitCh: make(chan struct{}, 64)}
}

func (f *fakeDashboard) Verify(_ context.Context, _ string) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyN++
	if !f.allow {
		return false, "Student ID is not authorized", nil
	}
	return true, "Student ID verified", nil
}

func (f *fakeDashboard) SubmitSample(_ context.Context, sample *telemetry.Sample) error {
	f.mu.Lock()
	f.samples = append(f.samples, sample)
	f.mu.Unlock()
	f.submitCh <- struct{}{}
	return nil
}

func (f *fakeDashboard) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StudentID:      "student_042",
		WorkspaceRoot:  t.TempDir(),
		SampleInterval: 20 * time.Millisecond,
		ProbeInterval:  10 * time.Millisecond,
	}
}

func TestRun_DeniedID(t *testing.T) {
	dash := newFakeDashboard(false)
	session := NewSession(testConfig(t), dash)

	err := session.Run(context.Background())
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized, got %v", err)
	}
	if dash.count() != 0 {
		t.Error("Expected no samples after denied verification")
	}
}

func TestRun_SubmitsOnTicker(t *testing.T) {
	dash := newFakeDashboard(true)
	session := NewSession(testConfig(t), dash)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	// Wait for at least two samples.
	for i := 0; i < 2; i++ {
		select {
		case <-dash.submitCh:
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for sample submission")
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not stop on cancel")
	}

	if dash.verifyN != 1 {
		t.Errorf("Expected exactly 1 verification, got %d", dash.verifyN)
	}
	if dash.count() < 2 {
		t.Errorf("Expected at least 2 samples, got %d", dash.count())
	}
}

func TestAssemble_CarriesSessionState(t *testing.T) {
	dash := newFakeDashboard(true)
	session := NewSession(testConfig(t), dash)

	session.SetFocused(true)
	for i := 0; i < 10; i++ {
		session.ObserveChange(behavior.Change{Text: "x"})
	}
	session.TrackWindow(forensic.Window{App: "Chrome", Title: "Go docs - Google Chrome"})

	sample := session.Assemble()
	if sample.User != "student_042" {
		t.Errorf("Expected user student_042, got %q", sample.User)
	}
	if sample.Behavior.Keystrokes != 10 {
		t.Errorf("Expected 10 keystrokes, got %d", sample.Behavior.Keystrokes)
	}
	if len(sample.Forensic.AppHistory) != 1 || sample.Forensic.AppHistory[0].App != "Chrome" {
		t.Errorf("Expected Chrome in app history, got %+v", sample.Forensic.AppHistory)
	}
	if sample.Timestamp.IsZero() {
		t.Error("Expected non-zero timestamp")
	}
	if err := sample.Validate(); err != nil {
		t.Errorf("Assembled sample should validate, got %v", err)
	}
}

type fixedRisk struct{ score float64 }

func (r fixedRisk) Risk() float64 { return r.score }

func TestAssemble_CarriesRiskScore(t *testing.T) {
	dash := newFakeDashboard(true)
	session := NewSession(testConfig(t), dash, WithRisk(fixedRisk{score: 0.73}))

	sample := session.Assemble()
	if sample.AI != 0.73 {
		t.Errorf("Expected ai risk 0.73, got %v", sample.AI)
	}
	if err := sample.Validate(); err != nil {
		t.Errorf("Assembled sample should validate, got %v", err)
	}
}

func TestAssemble_NoRiskSourceDefaultsToZero(t *testing.T) {
	dash := newFakeDashboard(true)
	session := NewSession(testConfig(t), dash)

	if ai := session.Assemble().AI; ai != 0 {
		t.Errorf("Expected zero risk without a scorer, got %v", ai)
	}
}

func TestCommandProbe_ParsesAppAndTitle(t *testing.T) {
	probe := NewCommandProbe(`printf 'Chrome\tGo docs - Google Chrome\n'`)

	w, err := probe.ActiveWindow(context.Background())
	if err != nil {
		t.Fatalf("ActiveWindow failed: %v", err)
	}
	if w.App != "Chrome" || w.Title != "Go docs - Google Chrome" {
		t.Errorf("Unexpected window: %+v", w)
	}
}

func TestCommandProbe_TitleOnly(t *testing.T) {
	probe := NewCommandProbe(`printf 'Just a Title\n'`)

	w, err := probe.ActiveWindow(context.Background())
	if err != nil {
		t.Fatalf("ActiveWindow failed: %v", err)
	}
	if w.App != "" || w.Title != "Just a Title" {
		t.Errorf("Unexpected window: %+v", w)
	}
}

func TestCommandProbe_EmptyOutput(t *testing.T) {
	probe := NewCommandProbe(`true`)

	if _, err := probe.ActiveWindow(context.Background()); !errors.Is(err, ErrNoWindow) {
		t.Errorf("Expected ErrNoWindow, got %v", err)
	}
}
