package assets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/p-n-ai/codemaster/internal/assets"
)

func newCDN(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/vue.js":
			_, _ = w.Write([]byte("console.log('vue')"))
		case "/theme.css":
			_, _ = w.Write([]byte("body{}"))
		case "/empty.js":
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestMirror_Sync(t *testing.T) {
	cdn, hits := newCDN(t)
	dir := filepath.Join(t.TempDir(), "lib")

	m := assets.NewMirror(dir, []assets.Library{
		{Name: "vue.min.js", URL: cdn.URL + "/vue.js"},
		{Name: "theme.min.css", URL: cdn.URL + "/theme.css"},
		{Name: "gone.min.js", URL: cdn.URL + "/missing.js"},
		{Name: "empty.min.js", URL: cdn.URL + "/empty.js"},
	}, assets.WithHTTPClient(cdn.Client()), assets.WithConcurrency(2))

	res, err := m.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Downloaded != 2 || res.Failed != 2 || res.Present != 0 {
		t.Errorf("Sync() = %+v, want 2 downloaded, 2 failed", res)
	}

	data, err := os.ReadFile(filepath.Join(dir, "vue.min.js"))
	if err != nil || string(data) != "console.log('vue')" {
		t.Errorf("vue.min.js = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.min.js")); !os.IsNotExist(err) {
		t.Error("failed download should leave no file")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("dir has %d entries, want 2 (no partial files)", len(entries))
	}

	before := hits.Load()
	res, err = m.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if res.Present != 2 || res.Downloaded != 0 {
		t.Errorf("second Sync() = %+v, want 2 present", res)
	}
	if got := hits.Load() - before; got != 2 {
		t.Errorf("second Sync() made %d requests, want 2 (only the missing ones)", got)
	}
}

func TestMirror_SyncCanceled(t *testing.T) {
	cdn, _ := newCDN(t)
	m := assets.NewMirror(t.TempDir(), []assets.Library{{Name: "vue.min.js", URL: cdn.URL + "/vue.js"}},
		assets.WithHTTPClient(cdn.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Sync(ctx); err == nil {
		t.Fatal("Sync() should fail with a canceled context")
	}
}

func TestMirror_Serve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hljs.min.js"), []byte("hljs()"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "atom-dark.min.css"), []byte(".hljs{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := assets.NewMirror(dir, assets.DefaultLibraries)

	tests := []struct {
		name         string
		file         string
		wantStatus   int
		wantType     string
		wantLocation string
	}{
		{"local js", "hljs.min.js", http.StatusOK, "application/javascript; charset=utf-8", ""},
		{"local css", "atom-dark.min.css", http.StatusOK, "text/css; charset=utf-8", ""},
		{"cdn fallback", "vue.min.js", http.StatusFound, "", "https://unpkg.com/vue@3.4.21/dist/vue.global.prod.js"},
		{"unknown", "jquery.js", http.StatusNotFound, "", ""},
		{"traversal", "../secret.js", http.StatusNotFound, "", ""},
		{"hidden", ".env", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/lib/"+tt.file, nil)
			m.Serve(rec, req, tt.file)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLocation)
			}
		})
	}
}

func TestRefresher_StartStop(t *testing.T) {
	m := assets.NewMirror(t.TempDir(), nil)

	if err := assets.NewRefresher(m, 0).Start(); err == nil {
		t.Error("Start() with a zero interval should fail")
	}

	r := assets.NewRefresher(m, 6)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.Jobs() != 1 {
		t.Errorf("Jobs() = %d, want 1", r.Jobs())
	}
	r.Stop()
}
