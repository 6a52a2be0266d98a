package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client implements Service against the OpenAI API.
type Client struct {
	api         *openai.Client
	assistantID string
	model       string
	logger      *slog.Logger
}

// NewClient creates a Client for the given assistant. baseURL may be empty
// for the public endpoint.
func NewClient(log *slog.Logger, apiKey, assistantID, model, baseURL string) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(assistantID) == "" {
		return nil, fmt.Errorf("assistant id is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		assistantID: assistantID,
		model:       model,
		logger:      log.With(slog.String("service", "assistant")),
	}, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	c.logger.Debug("thread created", slog.String("thread_id", thread.ID))
	return thread.ID, nil
}

func (c *Client) AddMessage(ctx context.Context, threadID, text string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

func (c *Client) CreateRun(ctx context.Context, threadID string) (string, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return run.ID, nil
}

func (c *Client) RunStatus(ctx context.Context, threadID, runID string) (Status, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return "", fmt.Errorf("retrieve run: %w", err)
	}
	return Status(run.Status), nil
}

// LatestMessage fetches the newest message on the thread. After a completed
// run that is the assistant's reply.
func (c *Client) LatestMessage(ctx context.Context, threadID string) (Message, error) {
	limit := 1
	order := "desc"
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return Message{}, fmt.Errorf("list messages: %w", err)
	}
	if len(list.Messages) == 0 {
		return Message{}, fmt.Errorf("thread %s has no messages", threadID)
	}
	return convertMessage(list.Messages[0]), nil
}

func convertMessage(msg openai.Message) Message {
	out := Message{}
	seen := make(map[string]struct{})
	appendFile := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out.FileIDs = append(out.FileIDs, id)
	}

	var text strings.Builder
	for _, part := range msg.Content {
		if part.Text != nil {
			text.WriteString(part.Text.Value)
		}
		if part.ImageFile != nil {
			appendFile(part.ImageFile.FileID)
		}
	}
	out.Text = text.String()

	for _, id := range msg.FileIds {
		appendFile(id)
	}
	return out
}

func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("read upload content: %w", err)
	}
	file, err := c.api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    filename,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", filename, err)
	}
	c.logger.Info("file uploaded",
		slog.String("file_id", file.ID),
		slog.String("filename", filename),
	)
	return file.ID, nil
}

func (c *Client) FileInfo(ctx context.Context, fileID string) (FileInfo, error) {
	file, err := c.api.GetFile(ctx, fileID)
	if err != nil {
		return FileInfo{}, fmt.Errorf("retrieve file %s: %w", fileID, err)
	}
	return FileInfo{ID: file.ID, Filename: file.FileName}, nil
}

func (c *Client) FileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	content, err := c.api.GetFileContent(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch file content %s: %w", fileID, err)
	}
	return content, nil
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.api.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}

func (c *Client) LinkedFiles(ctx context.Context) ([]string, error) {
	current, err := c.api.RetrieveAssistant(ctx, c.assistantID)
	if err != nil {
		return nil, fmt.Errorf("retrieve assistant: %w", err)
	}
	if current.ToolResources == nil || current.ToolResources.CodeInterpreter == nil {
		return nil, nil
	}
	return current.ToolResources.CodeInterpreter.FileIDs, nil
}

func (c *Client) SetLinkedFiles(ctx context.Context, fileIDs []string) error {
	_, err := c.api.ModifyAssistant(ctx, c.assistantID, openai.AssistantRequest{
		Model: c.model,
		Tools: []openai.AssistantTool{{Type: openai.AssistantToolTypeCodeInterpreter}},
		ToolResources: &openai.AssistantToolResource{
			CodeInterpreter: &openai.AssistantToolCodeInterpreter{FileIDs: fileIDs},
		},
	})
	if err != nil {
		return fmt.Errorf("update assistant file list: %w", err)
	}
	c.logger.Info("assistant file list updated", slog.Int("files", len(fileIDs)))
	return nil
}
