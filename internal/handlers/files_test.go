package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/runbridge/runbridge/internal/admin"
	"github.com/runbridge/runbridge/internal/assistant"
)

type fakeFileService struct {
	assistant.Service

	linked  []string
	names   map[string]string
	deleted []string
}

func (f *fakeFileService) LinkedFiles(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.linked...), nil
}

func (f *fakeFileService) FileInfo(ctx context.Context, fileID string) (assistant.FileInfo, error) {
	name, ok := f.names[fileID]
	if !ok {
		return assistant.FileInfo{}, fmt.Errorf("unknown file %s", fileID)
	}
	return assistant.FileInfo{ID: fileID, Filename: name}, nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, fileID string) error {
	if _, ok := f.names[fileID]; !ok {
		return fmt.Errorf("unknown file %s", fileID)
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func newFilesHandler(svc *fakeFileService) *FilesHandler {
	return NewFilesHandler(slog.Default(), admin.NewService(slog.Default(), svc))
}

func TestFilesHandlerList(t *testing.T) {
	t.Parallel()

	svc := &fakeFileService{
		linked: []string{"file-1", "file-2"},
		names:  map[string]string{"file-1": "report.csv", "file-2": "notes.txt"},
	}
	h := newFilesHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"report.csv", "notes.txt", `"count":2`} {
		if !strings.Contains(body, want) {
			t.Fatalf("response %q missing %q", body, want)
		}
	}
}

func TestFilesHandlerListEmpty(t *testing.T) {
	t.Parallel()

	h := newFilesHandler(&fakeFileService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"count":0`) {
		t.Fatalf("expected empty listing, got %q", rec.Body.String())
	}
}

func TestFilesHandlerDelete(t *testing.T) {
	t.Parallel()

	svc := &fakeFileService{names: map[string]string{"file-1": "report.csv"}}
	h := newFilesHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/files/file-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("file-1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "file-1" {
		t.Fatalf("unexpected deletions: %v", svc.deleted)
	}
}

func TestFilesHandlerDeleteNotFound(t *testing.T) {
	t.Parallel()

	h := newFilesHandler(&fakeFileService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/files/file-missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("file-missing")

	err := h.Delete(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTP error, got %v", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", httpErr.Code)
	}
}
