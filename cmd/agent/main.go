// xScout agent - collects activity telemetry and ships it to the dashboard
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xscout-labs/xscout/internal/agent"
	"github.com/xscout-labs/xscout/internal/config"
	"github.com/xscout-labs/xscout/internal/logging"
)

func main() {
	logger := logging.New("info", "text")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.StudentID == "" {
		logger.Error("STUDENT_ID is required")
		os.Exit(1)
	}

	logger.Info("starting xscout agent",
		"student_id", cfg.StudentID,
		"dashboard", cfg.DashboardURL,
		"sample_interval", cfg.SampleInterval,
	)

	client := agent.NewClient(cfg.DashboardURL)

	opts := []agent.SessionOption{agent.WithLogger(logger)}
	if cfg.ProbeCommand != "" {
		opts = append(opts, agent.WithProbe(agent.NewCommandProbe(cfg.ProbeCommand)))
	}

	session := agent.NewSession(cfg, client, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, agent.ErrNotAuthorized) {
			logger.Error("student id is not on the class roster", "student_id", cfg.StudentID)
		} else {
			logger.Error("agent error", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("agent stopped")
}
