package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/p-n-ai/codemaster/internal/progress"
	"github.com/p-n-ai/codemaster/internal/quiz"
)

type quizResponse struct {
	Questions []quiz.PublicQuestion `json:"questions"`
	IDs       []string              `json:"ids"`
}

type quizCheckRequest struct {
	Answers quiz.Submission `json:"answers"`
}

type quizCheckResponse struct {
	Correct  int                   `json:"correct"`
	Total    int                   `json:"total"`
	Results  []quiz.QuestionResult `json:"results"`
	Progress progress.Record       `json:"progress"`
	Warning  string                `json:"warning,omitempty"`
}

func (h *handler) quizRandom(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := strconv.Atoi(q.Get("count"))
	if err != nil {
		count = 0
	}

	resp := quizResponse{Questions: []quiz.PublicQuestion{}, IDs: []string{}}
	for pq := range h.Quiz.Sample(q.Get("lang"), count) {
		resp.Questions = append(resp.Questions, pq)
		resp.IDs = append(resp.IDs, pq.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) quizCheck(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuizBody))
	dec.UseNumber()

	var req quizCheckRequest
	if err := dec.Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return
	}

	graded, err := h.Quiz.Grade(req.Answers)
	if err != nil {
		if errors.Is(err, quiz.ErrPayloadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	resp := quizCheckResponse{
		Correct: graded.Correct,
		Total:   graded.Total,
		Results: graded.Results,
	}
	rec, err := h.Progress.RecordQuizResult(r.Context(), graded.Correct, graded.Total)
	if err != nil {
		if !errors.Is(err, progress.ErrStorageUnavailable) {
			slog.Error("failed to record quiz result", "error", err)
			writeError(w, http.StatusInternalServerError, CodeInternal, "failed to record quiz result")
			return
		}
		resp.Warning = storageWarning
	}
	resp.Progress = rec
	writeJSON(w, http.StatusOK, resp)
}
