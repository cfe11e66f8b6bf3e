package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeInvalidAction    = "invalid_action"
	CodeInvalidReference = "invalid_reference"
	CodePayloadTooLarge  = "payload_too_large"
	CodeInternal         = "internal"
)

// storageWarning is attached to responses whose progress change was not persisted.
const storageWarning = "progress not saved"

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}
