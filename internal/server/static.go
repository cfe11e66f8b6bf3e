package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.StaticDir, "index.html")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, CodeNotFound, "index.html not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (h *handler) lib(w http.ResponseWriter, r *http.Request) {
	if h.Assets == nil {
		http.NotFound(w, r)
		return
	}
	h.Assets.Serve(w, r, chi.URLParam(r, "file"))
}
