package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/codemaster/internal/progress"
	"github.com/p-n-ai/codemaster/internal/report"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

type progressResponse struct {
	progress.Record
	Warning string `json:"warning,omitempty"`
}

func (h *handler) progressGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Progress.CurrentState())
}

func (h *handler) progressPost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
		return
	}

	action, err := progress.DecodeAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidAction, err.Error())
		return
	}

	rec, err := h.Progress.Apply(r.Context(), action)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, progressResponse{Record: rec})
	case errors.Is(err, progress.ErrStorageUnavailable):
		writeJSON(w, http.StatusOK, progressResponse{Record: rec, Warning: storageWarning})
	case errors.Is(err, progress.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, CodeInvalidReference, err.Error())
	case errors.Is(err, progress.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, CodeInvalidAction, err.Error())
	default:
		slog.Error("progress action failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "progress update failed")
	}
}

func (h *handler) progressExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.Write(&buf, h.Progress.CurrentState(), h.Catalog, time.Now()); err != nil {
		slog.Error("progress export failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "export failed")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="codemaster-progress.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *handler) progressEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeJSON(w, http.StatusOK, []progress.Event{})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultEventLimit
	}
	limit = min(limit, maxEventLimit)

	events, err := h.Events.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("listing progress events failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "could not list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
