package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/runbridge/runbridge/internal/channel"
)

// generatedFileCaption accompanies every assistant-generated file forwarded
// into the chat.
const generatedFileCaption = "Here is the file you requested:"

// ingestAttachments runs the inbound file pipeline: re-fetch the assistant's
// linked-file list, stream each chat attachment into the remote file store,
// and update the assistant's tool resources once with the accumulated list.
// A single attachment failure is logged and skipped, never aborting the rest
// of the batch.
func (o *Orchestrator) ingestAttachments(ctx context.Context, log *slog.Logger, attachments []channel.Attachment) error {
	fileIDs, err := o.svc.LinkedFiles(ctx)
	if err != nil {
		return fmt.Errorf("fetch linked files: %w", err)
	}

	uploaded := 0
	for _, att := range attachments {
		fileID, err := o.uploadAttachment(ctx, att)
		if err != nil {
			log.Warn("attachment upload failed",
				slog.String("filename", att.Name),
				slog.Any("error", err),
			)
			continue
		}
		fileIDs = append(fileIDs, fileID)
		uploaded++
	}

	if uploaded == 0 {
		return nil
	}
	if err := o.svc.SetLinkedFiles(ctx, fileIDs); err != nil {
		return err
	}
	log.Info("attachments linked",
		slog.Int("uploaded", uploaded),
		slog.Int("total_linked", len(fileIDs)),
	)
	return nil
}

func (o *Orchestrator) uploadAttachment(ctx context.Context, att channel.Attachment) (string, error) {
	if !att.HasReference() {
		return "", fmt.Errorf("attachment %s has no download url", att.Name)
	}
	body, err := o.download(ctx, att.URL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = body.Close()
	}()
	return o.svc.UploadFile(ctx, att.Name, body)
}

func (o *Orchestrator) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download attachment status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// deliverGeneratedFiles runs the outbound pipeline for every file the
// assistant's reply produced, in order: fetch metadata and content, forward
// into the chat, then delete from the remote store. Deletion failure does
// not roll back the forward; per-file failures are isolated.
func (o *Orchestrator) deliverGeneratedFiles(ctx context.Context, log *slog.Logger, fileIDs []string, r channel.Responder) {
	for _, fileID := range fileIDs {
		if err := o.forwardGeneratedFile(ctx, fileID, r); err != nil {
			log.Warn("generated file delivery failed",
				slog.String("file_id", fileID),
				slog.Any("error", err),
			)
			continue
		}
		if err := o.svc.DeleteFile(ctx, fileID); err != nil {
			log.Warn("generated file cleanup failed",
				slog.String("file_id", fileID),
				slog.Any("error", err),
			)
			continue
		}
		log.Info("generated file delivered and removed", slog.String("file_id", fileID))
	}
}

func (o *Orchestrator) forwardGeneratedFile(ctx context.Context, fileID string, r channel.Responder) error {
	info, err := o.svc.FileInfo(ctx, fileID)
	if err != nil {
		return err
	}
	content, err := o.svc.FileContent(ctx, fileID)
	if err != nil {
		return err
	}
	defer func() {
		_ = content.Close()
	}()
	if err := r.ReplyFile(ctx, info.Filename, content, generatedFileCaption); err != nil {
		return fmt.Errorf("forward file %s: %w", fileID, err)
	}
	return nil
}
