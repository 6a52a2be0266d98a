package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/runbridge/runbridge/internal/assistant"
)

const (
	// DefaultPollInterval keeps polling responsive without hammering the API.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultPollTimeout bounds the wall clock spent waiting for one run.
	DefaultPollTimeout = 2 * time.Minute
)

// Poller blocks until a run reaches a terminal state, re-fetching its status
// at a fixed interval. Both a wall-clock timeout and an iteration cap bound
// the loop; past either, Await returns ErrRunTimedOut.
type Poller struct {
	svc      assistant.Service
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPoller creates a Poller. Zero interval or timeout fall back to defaults.
func NewPoller(log *slog.Logger, svc assistant.Service, interval, timeout time.Duration) *Poller {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		svc:      svc,
		interval: interval,
		timeout:  timeout,
		logger:   log.With(slog.String("component", "poller")),
	}
}

// Await polls the run until it is terminal and returns its final status.
// Network failures while polling propagate immediately.
func (p *Poller) Await(ctx context.Context, threadID, runID string) (assistant.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	maxTicks := int(p.timeout/p.interval) + 1
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for tick := 0; tick < maxTicks; tick++ {
		status, err := p.svc.RunStatus(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("poll run %s: %w", runID, err)
		}
		if status.Terminal() {
			p.logger.Debug("run terminal",
				slog.String("run_id", runID),
				slog.String("status", string(status)),
				slog.Int("polls", tick+1),
			)
			return status, nil
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("run %s after %s: %w", runID, p.timeout, ErrRunTimedOut)
		case <-timer.C:
		}
	}
	return "", fmt.Errorf("run %s after %d polls: %w", runID, maxTicks, ErrRunTimedOut)
}
