package assets

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Serve writes a mirrored library. Missing local copies of known libraries
// redirect to their CDN; anything else is 404.
func (m *Mirror) Serve(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(filepath.Join(m.dir, name))
	if err == nil {
		defer func() { _ = f.Close() }()
		info, statErr := f.Stat()
		if statErr == nil && info.Mode().IsRegular() {
			w.Header().Set("Content-Type", ContentType(name))
			http.ServeContent(w, r, name, info.ModTime(), f)
			return
		}
	}

	if lib, ok := m.libs[name]; ok {
		http.Redirect(w, r, lib.URL, http.StatusFound)
		return
	}
	http.NotFound(w, r)
}

// ContentType is the media type a library is served with.
func ContentType(name string) string {
	if strings.HasSuffix(name, ".css") {
		return "text/css; charset=utf-8"
	}
	return "application/javascript; charset=utf-8"
}
