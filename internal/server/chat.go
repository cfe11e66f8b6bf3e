package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-n-ai/codemaster/internal/tutor"
)

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req tutor.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, h.Tutor.Chat(r.Context(), req.Messages))
}
