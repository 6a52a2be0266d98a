package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/runbridge/runbridge/internal/assistant"
	"github.com/runbridge/runbridge/internal/channel"
)

// fakeAssistant implements assistant.Service for unit tests. Runs complete
// after pollsBeforeDone status fetches unless a status script or final
// status overrides that.
type fakeAssistant struct {
	mu sync.Mutex

	threadSeq     int
	createThreads int
	added         map[string][]string

	runSeq          int
	pollsBeforeDone int
	finalStatus     assistant.Status
	statusScript    []assistant.Status
	runPolls        map[string]int
	activeRuns      int
	maxActiveRuns   int

	latest    assistant.Message
	latestErr error

	linked     []string
	linkedErr  error
	setLinked  [][]string
	uploads    []string
	uploadFail map[string]bool
	deleted    []string
	fileErr    map[string]error
	content    string
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{
		added:           make(map[string][]string),
		runPolls:        make(map[string]int),
		pollsBeforeDone: 0,
		finalStatus:     assistant.StatusCompleted,
		uploadFail:      make(map[string]bool),
		fileErr:         make(map[string]error),
		content:         "file-bytes",
	}
}

func (f *fakeAssistant) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadSeq++
	f.createThreads++
	return fmt.Sprintf("thread-%d", f.threadSeq), nil
}

func (f *fakeAssistant) AddMessage(ctx context.Context, threadID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[threadID] = append(f.added[threadID], text)
	return nil
}

func (f *fakeAssistant) CreateRun(ctx context.Context, threadID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runSeq++
	f.activeRuns++
	if f.activeRuns > f.maxActiveRuns {
		f.maxActiveRuns = f.activeRuns
	}
	runID := fmt.Sprintf("run-%d", f.runSeq)
	f.runPolls[runID] = 0
	return runID, nil
}

func (f *fakeAssistant) RunStatus(ctx context.Context, threadID, runID string) (assistant.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statusScript) > 0 {
		status := f.statusScript[0]
		f.statusScript = f.statusScript[1:]
		if status.Terminal() {
			f.activeRuns--
		}
		return status, nil
	}
	f.runPolls[runID]++
	if f.runPolls[runID] <= f.pollsBeforeDone {
		return assistant.StatusInProgress, nil
	}
	f.activeRuns--
	return f.finalStatus, nil
}

func (f *fakeAssistant) LatestMessage(ctx context.Context, threadID string) (assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return assistant.Message{}, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeAssistant) UploadFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadFail[filename] {
		return "", fmt.Errorf("upload rejected: %s", filename)
	}
	id := fmt.Sprintf("file-%d", len(f.uploads)+1)
	f.uploads = append(f.uploads, filename)
	return id, nil
}

func (f *fakeAssistant) FileInfo(ctx context.Context, fileID string) (assistant.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fileErr[fileID]; err != nil {
		return assistant.FileInfo{}, err
	}
	return assistant.FileInfo{ID: fileID, Filename: fileID + ".csv"}, nil
}

func (f *fakeAssistant) FileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fileErr[fileID]; err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func (f *fakeAssistant) DeleteFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	kept := f.linked[:0]
	for _, id := range f.linked {
		if id != fileID {
			kept = append(kept, id)
		}
	}
	f.linked = kept
	return nil
}

func (f *fakeAssistant) LinkedFiles(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkedErr != nil {
		return nil, f.linkedErr
	}
	return append([]string(nil), f.linked...), nil
}

func (f *fakeAssistant) SetLinkedFiles(ctx context.Context, fileIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked = append([]string(nil), fileIDs...)
	f.setLinked = append(f.setLinked, f.linked)
	return nil
}

type sentFile struct {
	name    string
	caption string
	content string
}

// fakeResponder records everything delivered back into the conversation.
type fakeResponder struct {
	mu        sync.Mutex
	replies   []string
	files     []sentFile
	typing    int
	history   []channel.Message
	historyOK bool
	replyErr  error
}

func (r *fakeResponder) Reply(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replyErr != nil {
		return r.replyErr
	}
	r.replies = append(r.replies, text)
	return nil
}

func (r *fakeResponder) ReplyFile(ctx context.Context, filename string, content io.Reader, caption string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, sentFile{name: filename, caption: caption, content: string(data)})
	return nil
}

func (r *fakeResponder) SendTyping(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing++
}

func (r *fakeResponder) History(ctx context.Context) ([]channel.Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history, r.historyOK, nil
}

func (r *fakeResponder) sentReplies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

func inbound(conversationID, text string) channel.InboundMessage {
	return channel.InboundMessage{
		Channel: channel.ChannelType("test"),
		Message: channel.Message{ID: "msg-1", Text: text},
		Sender:  channel.Identity{SubjectID: "user-1"},
		Conversation: channel.Conversation{
			ID:   conversationID,
			Type: "direct",
		},
	}
}
