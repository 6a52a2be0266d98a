package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/runbridge/runbridge/internal/admin"
)

// FilesHandler exposes the assistant's linked code-interpreter files over HTTP.
type FilesHandler struct {
	logger *slog.Logger
	files  *admin.Service
}

func NewFilesHandler(log *slog.Logger, files *admin.Service) *FilesHandler {
	return &FilesHandler{
		logger: log.With(slog.String("handler", "files")),
		files:  files,
	}
}

func (h *FilesHandler) Register(e *echo.Echo) {
	e.GET("/api/files", h.List)
	e.DELETE("/api/files/:id", h.Delete)
}

func (h *FilesHandler) List(c echo.Context) error {
	entries, err := h.files.ListFiles(c.Request().Context())
	if err != nil {
		h.logger.Error("list files", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to list assistant files")
	}
	if entries == nil {
		entries = []admin.FileEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"files": entries,
		"count": len(entries),
	})
}

func (h *FilesHandler) Delete(c echo.Context) error {
	fileID := c.Param("id")
	if err := h.files.DeleteFile(c.Request().Context(), fileID); err != nil {
		h.logger.Warn("delete file", slog.String("file_id", fileID), slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "deleted",
		"file_id": fileID,
	})
}
