// Package orchestrator bridges inbound chat messages to assistant runs: it
// maps conversations to remote threads, seeds history exactly once, launches
// and awaits runs, and delivers the segmented reply and generated files back
// into the chat.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runbridge/runbridge/internal/assistant"
	"github.com/runbridge/runbridge/internal/channel"
	"github.com/runbridge/runbridge/internal/thread"
)

// failureReply is the single user-facing message sent when processing fails.
const failureReply = "Something went wrong while processing your message. Please try again later."

// Options tunes polling and reply segmenting.
type Options struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	Segments     channel.SegmentPolicy
	HTTPClient   *http.Client
}

// Orchestrator owns the message hot path. One instance serves all
// conversations; per-conversation state is limited to the mapping store and
// the serialization locks.
type Orchestrator struct {
	logger     *slog.Logger
	svc        assistant.Service
	store      thread.Store
	locks      *conversationLocks
	poller     *Poller
	segments   channel.SegmentPolicy
	httpClient *http.Client
}

// New wires an Orchestrator from its collaborators.
func New(log *slog.Logger, svc assistant.Service, store thread.Store, opts Options) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Orchestrator{
		logger:     log.With(slog.String("component", "orchestrator")),
		svc:        svc,
		store:      store,
		locks:      newConversationLocks(),
		poller:     NewPoller(log, svc, opts.PollInterval, opts.PollTimeout),
		segments:   channel.NormalizeSegmentPolicy(opts.Segments),
		httpClient: httpClient,
	}
}

// HandleInbound is the channel.InboundHandler entry point. Core failures are
// converted into one polite failure reply; the error is still returned for
// the adapter's logging. Bot-authored and empty messages are ignored.
func (o *Orchestrator) HandleInbound(ctx context.Context, msg channel.InboundMessage, r channel.Responder) error {
	if msg.Sender.Bot || msg.Message.IsEmpty() {
		return nil
	}

	log := o.logger.With(
		slog.String("correlation_id", uuid.NewString()),
		slog.String("channel", msg.Channel.String()),
		slog.String("conversation_id", msg.Conversation.ID),
	)

	r.SendTyping(ctx)

	if err := o.process(ctx, log, msg, r); err != nil {
		log.Error("inbound processing failed", slog.Any("error", err))
		if replyErr := r.Reply(ctx, failureReply); replyErr != nil {
			log.Error("failure reply not delivered", slog.Any("error", replyErr))
		}
		return err
	}
	return nil
}

func (o *Orchestrator) process(ctx context.Context, log *slog.Logger, msg channel.InboundMessage, r channel.Responder) error {
	if len(msg.Message.Attachments) > 0 {
		if err := o.ingestAttachments(ctx, log, msg.Message.Attachments); err != nil {
			return err
		}
	}

	text := strings.TrimSpace(msg.Message.Text)
	if text == "" {
		return nil
	}
	return o.processMessage(ctx, log, msg.Conversation, text, r)
}

// processMessage resolves the remote thread (creating and seeding it on
// first contact), submits the content, launches exactly one run, awaits its
// terminal status, and delivers the result. All of it holds the
// conversation's lock: a thread never sees two concurrently active runs.
func (o *Orchestrator) processMessage(ctx context.Context, log *slog.Logger, conv channel.Conversation, text string, r channel.Responder) error {
	unlock := o.locks.lock(conv.ID)
	defer unlock()

	threadID, seeded, err := o.resolveThread(ctx, log, conv, r)
	if err != nil {
		return err
	}
	log = log.With(slog.String("thread_id", threadID))

	// Seeded history already contains the triggering message.
	if !seeded {
		if err := o.svc.AddMessage(ctx, threadID, text); err != nil {
			return err
		}
	}

	runID, err := o.svc.CreateRun(ctx, threadID)
	if err != nil {
		return err
	}

	status, err := o.poller.Await(ctx, threadID, runID)
	if err != nil {
		return err
	}
	if !status.Succeeded() {
		return fmt.Errorf("%w: run %s ended %s", ErrRunTerminalFailure, runID, status)
	}

	result, err := o.svc.LatestMessage(ctx, threadID)
	if err != nil {
		return err
	}

	if err := o.deliverText(ctx, result.Text, r); err != nil {
		return err
	}
	o.deliverGeneratedFiles(ctx, log, result.FileIDs, r)
	return nil
}

// resolveThread returns the remote thread for the conversation, creating the
// mapping on first contact. For conversations that carry their own prior
// messages, history is replayed into the new thread before any new content.
func (o *Orchestrator) resolveThread(ctx context.Context, log *slog.Logger, conv channel.Conversation, r channel.Responder) (threadID string, seeded bool, err error) {
	threadID, ok, err := o.store.Get(ctx, conv.ID)
	if err != nil {
		return "", false, err
	}
	if ok {
		return threadID, false, nil
	}

	threadID, err = o.svc.CreateThread(ctx)
	if err != nil {
		return "", false, err
	}
	if err := o.store.Put(ctx, conv.ID, threadID); err != nil {
		return "", false, err
	}
	log.Info("conversation mapped",
		slog.String("conversation_id", conv.ID),
		slog.String("thread_id", threadID),
	)

	if !conv.ThreadContainer {
		return threadID, false, nil
	}
	n, err := o.seedHistory(ctx, log, threadID, r)
	if err != nil {
		return "", false, err
	}
	return threadID, n > 0, nil
}

// deliverText sends the run's textual result as fenced segments in strict
// order, one transport message per segment. Content past the segment cap is
// dropped but announced, never silently lost.
func (o *Orchestrator) deliverText(ctx context.Context, text string, r channel.Responder) error {
	segments, omitted := channel.SegmentText(text, o.segments)
	for _, segment := range segments {
		if err := r.Reply(ctx, channel.WrapSegment(segment)); err != nil {
			return fmt.Errorf("send reply segment: %w", err)
		}
	}
	if omitted > 0 {
		if err := r.Reply(ctx, channel.TruncationNotice(omitted)); err != nil {
			return fmt.Errorf("send truncation notice: %w", err)
		}
	}
	return nil
}
