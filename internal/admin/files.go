// Package admin provides out-of-band management of the files linked to the
// assistant, used by slash commands and the HTTP API. It never runs on the
// message hot path.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runbridge/runbridge/internal/assistant"
)

// ErrFileNotFound reports a delete against a file id the remote store does
// not know.
var ErrFileNotFound = errors.New("file not found")

// FileEntry pairs a linked file's name with its id.
type FileEntry struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
}

// Service answers admin queries against the assistant's file registry.
type Service struct {
	svc    assistant.Service
	logger *slog.Logger
}

// NewService creates the admin file service.
func NewService(log *slog.Logger, svc assistant.Service) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		svc:    svc,
		logger: log.With(slog.String("service", "admin")),
	}
}

// ListFiles re-fetches the assistant's linked-file list and resolves each
// entry's filename. An unresolvable entry falls back to its bare id rather
// than hiding the file from the listing.
func (s *Service) ListFiles(ctx context.Context) ([]FileEntry, error) {
	fileIDs, err := s.svc.LinkedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list linked files: %w", err)
	}

	entries := make([]FileEntry, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		entry := FileEntry{ID: fileID, Filename: fileID}
		info, err := s.svc.FileInfo(ctx, fileID)
		if err != nil {
			s.logger.Warn("resolve file metadata failed",
				slog.String("file_id", fileID),
				slog.Any("error", err),
			)
		} else {
			entry.Filename = info.Filename
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteFile removes a file from the remote store by id. Unknown ids map to
// ErrFileNotFound; there is no retry.
func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return ErrFileNotFound
	}
	if err := s.svc.DeleteFile(ctx, fileID); err != nil {
		s.logger.Warn("delete file failed",
			slog.String("file_id", fileID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	s.logger.Info("file deleted", slog.String("file_id", fileID))
	return nil
}

// FormatListing renders entries for chat display; an empty list reports
// "no files" rather than nothing.
func FormatListing(entries []FileEntry) string {
	if len(entries) == 0 {
		return "The assistant has no linked files."
	}
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%s ## %s\n", entry.Filename, entry.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
