package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handler) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Languages())
}

func (h *handler) lessons(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	lessons, ok := h.Catalog.Lessons(lang)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("language %q not found", lang))
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

func (h *handler) exercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Exercises(r.URL.Query().Get("lang")))
}
