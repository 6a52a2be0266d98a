package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runbridge/runbridge/internal/channel"
)

// seedHistory replays a conversation's prior messages into a freshly created
// remote thread, oldest first, so temporal order matches the original
// conversation. It returns the number of messages seeded; zero means the
// transport could not enumerate history and the caller must submit the
// triggering message itself.
//
// Seeding errors propagate: a partially seeded thread must not accept new
// content, or the remote context would be out of order.
func (o *Orchestrator) seedHistory(ctx context.Context, log *slog.Logger, threadID string, r channel.Responder) (int, error) {
	history, ok, err := r.History(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch history: %w", err)
	}
	if !ok {
		return 0, nil
	}

	seeded := 0
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		if err := o.svc.AddMessage(ctx, threadID, text); err != nil {
			return seeded, fmt.Errorf("seed message %d: %w", seeded, err)
		}
		seeded++
	}
	log.Info("history seeded",
		slog.String("thread_id", threadID),
		slog.Int("messages", seeded),
	)
	return seeded, nil
}
