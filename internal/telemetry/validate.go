package telemetry

import (
	"errors"
	"fmt"
)

var (
	ErrNoUser          = errors.New("sample has no user id")
	ErrNoTimestamp     = errors.New("sample has no timestamp")
	ErrRiskOutOfRange  = errors.New("ai risk score outside [0,1]")
	ErrNegativeCounter = errors.New("behavior counter is negative")
	ErrBadFlowState    = errors.New("unknown flow state")
	ErrDuplicateApp    = errors.New("duplicate app name in appHistory")
	ErrTooManyTabs     = errors.New("app entry exceeds tab cap")
)

// Validate checks a decoded sample against the ingestion contract.
// Absent optional data (nil project, nil tech, empty snapshot) is fine;
// malformed required data is not.
func (s *Sample) Validate() error {
	if s.User == "" {
		return ErrNoUser
	}
	if s.Timestamp.IsZero() {
		return ErrNoTimestamp
	}
	if s.AI < 0 || s.AI > 1 {
		return fmt.Errorf("%w: %g", ErrRiskOutOfRange, s.AI)
	}

	b := s.Behavior
	if b.WPM < 0 || b.Keystrokes < 0 || b.Backspaces < 0 || b.PasteCount < 0 {
		return ErrNegativeCounter
	}
	if b.Fatigue < 0 || b.Fatigue > 100 {
		return fmt.Errorf("fatigue %d outside [0,100]", b.Fatigue)
	}
	// Zero value means the field was absent; treat as NORMAL rather than reject.
	if b.FlowState != "" && !b.FlowState.Valid() {
		return fmt.Errorf("%w: %q", ErrBadFlowState, b.FlowState)
	}

	seen := make(map[string]bool, len(s.Forensic.AppHistory))
	for _, entry := range s.Forensic.AppHistory {
		if entry.App == "" {
			return errors.New("app entry has no app name")
		}
		if seen[entry.App] {
			return fmt.Errorf("%w: %q", ErrDuplicateApp, entry.App)
		}
		seen[entry.App] = true
		if len(entry.Tabs) > MaxTabs {
			return fmt.Errorf("%w: %q has %d tabs", ErrTooManyTabs, entry.App, len(entry.Tabs))
		}
	}

	return nil
}

// Normalize fills documented sentinels for absent optional data so that
// consumers never see nil slices or an empty flow state.
func (s *Sample) Normalize() {
	if s.Behavior.FlowState == "" {
		s.Behavior.FlowState = FlowNormal
	}
	if s.Forensic.ActiveDocuments == nil {
		s.Forensic.ActiveDocuments = []string{}
	}
	if s.Forensic.History == nil {
		s.Forensic.History = []string{}
	}
	if s.Forensic.AppHistory == nil {
		s.Forensic.AppHistory = []AppEntry{}
	}
	if s.Forensic.URLHistory == nil {
		s.Forensic.URLHistory = []string{}
	}
}
