// Package assistant wraps the OpenAI Assistants API surface the bridge
// depends on: threads, messages, runs, files, and the assistant's
// code-interpreter file registry.
package assistant

import (
	"context"
	"io"
)

// Status is a run's lifecycle state as reported by the remote service.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCancelling     Status = "cancelling"
	StatusCancelled      Status = "cancelled"
	StatusFailed         Status = "failed"
	StatusCompleted      Status = "completed"
	StatusIncomplete     Status = "incomplete"
	StatusExpired        Status = "expired"
)

// Terminal reports whether no further state change can occur.
// requires_action is deliberately non-terminal: the bridge submits no tool
// outputs, so such runs fall to the poller's timeout.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusFailed, StatusCompleted, StatusIncomplete, StatusExpired:
		return true
	}
	return false
}

// Succeeded reports whether the run produced a usable result.
func (s Status) Succeeded() bool {
	return s == StatusCompleted
}

// Message is an assistant-authored thread message: its text plus the ids of
// any files it generated.
type Message struct {
	Text    string
	FileIDs []string
}

// FileInfo describes a file in the remote store.
type FileInfo struct {
	ID       string
	Filename string
}

// Service is the remote assistant computation contract consumed by the
// orchestrator and the admin handler.
type Service interface {
	CreateThread(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, threadID, text string) error
	CreateRun(ctx context.Context, threadID string) (string, error)
	RunStatus(ctx context.Context, threadID, runID string) (Status, error)
	LatestMessage(ctx context.Context, threadID string) (Message, error)

	UploadFile(ctx context.Context, filename string, content io.Reader) (string, error)
	FileInfo(ctx context.Context, fileID string) (FileInfo, error)
	FileContent(ctx context.Context, fileID string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, fileID string) error

	// LinkedFiles re-fetches the assistant's code-interpreter file list.
	// The registry is shared across conversations, so callers must re-fetch
	// before every mutation rather than trust a cached copy.
	LinkedFiles(ctx context.Context) ([]string, error)
	SetLinkedFiles(ctx context.Context, fileIDs []string) error
}
