// Package assets mirrors the frontend's third-party libraries into the
// static directory so the UI keeps working without a CDN.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 4
	maxAssetSize       = 16 << 20
)

// Library is a frontend asset and the CDN it is fetched from.
type Library struct {
	Name string
	URL  string
}

// DefaultLibraries are the scripts and styles index.html loads from /lib.
var DefaultLibraries = []Library{
	{Name: "vue.min.js", URL: "https://unpkg.com/vue@3.4.21/dist/vue.global.prod.js"},
	{Name: "hljs.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js"},
	{Name: "hljs-python.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/languages/python.min.js"},
	{Name: "hljs-js.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/languages/javascript.min.js"},
	{Name: "hljs-java.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/languages/java.min.js"},
	{Name: "atom-dark.min.css", URL: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/styles/atom-one-dark.min.css"},
	{Name: "tailwind.min.js", URL: "https://cdn.tailwindcss.com"},
}

// SyncResult counts what one Sync pass did.
type SyncResult struct {
	Downloaded int
	Present    int
	Failed     int
}

// Mirror downloads libraries into a local directory and serves them.
type Mirror struct {
	dir         string
	libs        map[string]Library
	order       []string
	client      *http.Client
	concurrency int
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Mirror) { m.client = c }
}

// WithConcurrency bounds parallel downloads.
func WithConcurrency(n int) Option {
	return func(m *Mirror) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewMirror creates a mirror of libs in dir.
func NewMirror(dir string, libs []Library, opts ...Option) *Mirror {
	m := &Mirror{
		dir:         dir,
		libs:        make(map[string]Library, len(libs)),
		client:      &http.Client{Timeout: 30 * time.Second},
		concurrency: defaultConcurrency,
	}
	for _, l := range libs {
		if _, dup := m.libs[l.Name]; !dup {
			m.order = append(m.order, l.Name)
		}
		m.libs[l.Name] = l
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the local mirror directory.
func (m *Mirror) Dir() string { return m.dir }

// Lookup returns the library registered under name.
func (m *Mirror) Lookup(name string) (Library, bool) {
	l, ok := m.libs[name]
	return l, ok
}

// Sync downloads every library not yet present locally. Individual
// failures are logged and counted; only a context error or an unusable
// directory fails the pass.
func (m *Mirror) Sync(ctx context.Context) (SyncResult, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return SyncResult{}, fmt.Errorf("creating asset dir: %w", err)
	}

	var downloaded, present, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, name := range m.order {
		lib := m.libs[name]
		if m.present(name) {
			present.Add(1)
			continue
		}
		g.Go(func() error {
			if err := m.download(gctx, lib); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				slog.Warn("asset download failed", "asset", lib.Name, "url", lib.URL, "error", err)
				return nil
			}
			downloaded.Add(1)
			slog.Info("asset downloaded", "asset", lib.Name)
			return nil
		})
	}

	err := g.Wait()
	res := SyncResult{
		Downloaded: int(downloaded.Load()),
		Present:    int(present.Load()),
		Failed:     int(failed.Load()),
	}
	if err != nil {
		return res, fmt.Errorf("syncing assets: %w", err)
	}
	return res, nil
}

func (m *Mirror) present(name string) bool {
	info, err := os.Stat(filepath.Join(m.dir, name))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func (m *Mirror) download(ctx context.Context, lib Library) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lib.URL, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.dir, "."+lib.Name+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("empty body")
	}
	if n > maxAssetSize {
		return fmt.Errorf("asset larger than %d bytes", maxAssetSize)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(m.dir, lib.Name))
}
