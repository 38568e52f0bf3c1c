package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/xscout-labs/xscout/internal/forensic"
)

// ErrNoWindow is returned when the probe command reports nothing.
var ErrNoWindow = errors.New("no active window reported")

// CommandProbe resolves the active window by running an external command.
// The command prints one line: the application name and the window title
// separated by a tab. What that command is depends on the desktop
// environment (xdotool, osascript, powershell) and stays out of this binary.
type CommandProbe struct {
	command string
}

var _ forensic.WindowProbe = (*CommandProbe)(nil)

// NewCommandProbe creates a probe around a shell command.
func NewCommandProbe(command string) *CommandProbe {
	return &CommandProbe{command: command}
}

// ActiveWindow runs the probe command and parses its first output line.
func (p *CommandProbe) ActiveWindow(ctx context.Context) (forensic.Window, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", p.command).Output()
	if err != nil {
		return forensic.Window{}, fmt.Errorf("probe command: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return forensic.Window{}, ErrNoWindow
	}

	app, title, found := strings.Cut(line, "\t")
	if !found {
		// A single field is treated as the title of an unknown app.
		return forensic.Window{Title: strings.TrimSpace(line)}, nil
	}
	return forensic.Window{
		App:   strings.TrimSpace(app),
		Title: strings.TrimSpace(title),
	}, nil
}
