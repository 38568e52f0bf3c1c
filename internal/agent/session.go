package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xscout-labs/xscout/internal/behavior"
	"github.com/xscout-labs/xscout/internal/config"
	"github.com/xscout-labs/xscout/internal/forensic"
	"github.com/xscout-labs/xscout/internal/project"
	"github.com/xscout-labs/xscout/internal/techstack"
	"github.com/xscout-labs/xscout/internal/telemetry"
)

// ErrNotAuthorized is returned when the dashboard rejects the student id at
// session start.
var ErrNotAuthorized = errors.New("student id not authorized")

// Submitter posts assembled samples. Satisfied by *Client.
type Submitter interface {
	Verify(ctx context.Context, studentID string) (bool, string, error)
	SubmitSample(ctx context.Context, sample *telemetry.Sample) error
}

// DocumentSource reports the currently open documents. The editor
// integration feeding the session implements this; Documents is called once
// per sample tick.
type DocumentSource interface {
	Documents() []forensic.Document
}

// RiskSource reports the external scorer's latest AI risk verdict in [0,1].
// Risk is called once per sample tick; the session never computes the score
// itself.
type RiskSource interface {
	Risk() float64
}

// Session is one monitoring run for one student.
type Session struct {
	cfg    *config.Config
	client Submitter
	probe  forensic.WindowProbe
	logger *slog.Logger

	classifier *behavior.Classifier
	collector  *forensic.Collector
	projects   *project.Scanner
	stack      *techstack.Detector

	mu   sync.Mutex
	docs DocumentSource
	risk RiskSource
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithProbe sets the active-window probe.
func WithProbe(probe forensic.WindowProbe) SessionOption {
	return func(s *Session) { s.probe = probe }
}

// WithDocuments sets the open-document source.
func WithDocuments(docs DocumentSource) SessionOption {
	return func(s *Session) { s.docs = docs }
}

// WithRisk sets the external AI risk score source.
func WithRisk(risk RiskSource) SessionOption {
	return func(s *Session) { s.risk = risk }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a monitoring session.
func NewSession(cfg *config.Config, client Submitter, opts ...SessionOption) *Session {
	s := &Session{
		cfg:        cfg,
		client:     client,
		logger:     slog.Default(),
		classifier: behavior.NewClassifier(),
		collector:  forensic.NewCollector(),
		projects:   project.NewScanner(cfg.WorkspaceRoot),
		stack:      techstack.NewDetector(cfg.WorkspaceRoot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObserveChange feeds one document edit into the behavior classifier.
func (s *Session) ObserveChange(change behavior.Change) {
	s.classifier.Observe(change)
}

// SetFocused records an editor focus transition.
func (s *Session) SetFocused(focused bool) {
	s.classifier.SetFocused(focused)
}

// TrackWindow records an externally observed active window.
func (s *Session) TrackWindow(w forensic.Window) {
	s.collector.TrackWindow(w)
}

// Run verifies the student id, then samples until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	ok, message, err := s.client.Verify(ctx, s.cfg.StudentID)
	if err != nil {
		return fmt.Errorf("verify student id: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, message)
	}
	s.logger.Info("session authorized", "student_id", s.cfg.StudentID)

	sampleTicker := time.NewTicker(s.cfg.SampleInterval)
	defer sampleTicker.Stop()
	probeTicker := time.NewTicker(s.cfg.ProbeInterval)
	defer probeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return ctx.Err()

		case <-probeTicker.C:
			s.runProbe(ctx)

		case <-sampleTicker.C:
			sample := s.Assemble()
			// Fire and forget: a slow dashboard must not delay the next tick.
			go func() {
				submitCtx, cancel := context.WithTimeout(context.Background(), s.cfg.SampleInterval)
				defer cancel()
				if err := s.client.SubmitSample(submitCtx, sample); err != nil {
					s.logger.Warn("sample submission failed", "error", err)
				}
			}()
		}
	}
}

func (s *Session) runProbe(ctx context.Context) {
	if s.probe == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeInterval)
	defer cancel()

	w, err := s.probe.ActiveWindow(probeCtx)
	if err != nil {
		s.logger.Debug("window probe failed", "error", err)
		return
	}
	s.collector.TrackWindow(w)
}

// Assemble builds one telemetry sample from the current session state.
func (s *Session) Assemble() *telemetry.Sample {
	var docs []forensic.Document
	s.mu.Lock()
	source := s.docs
	scorer := s.risk
	s.mu.Unlock()
	if source != nil {
		docs = source.Documents()
	}

	var ai float64
	if scorer != nil {
		ai = scorer.Risk()
	}

	return &telemetry.Sample{
		Timestamp: time.Now().UTC(),
		User:      s.cfg.StudentID,
		Behavior:  s.classifier.Snapshot(),
		Forensic:  s.collector.Scan(docs),
		Project:   s.projects.Scan(),
		Tech:      s.stack.Scan(),
		AI:        ai,
	}
}
