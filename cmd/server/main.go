package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/codemaster/internal/ai"
	"github.com/p-n-ai/codemaster/internal/assets"
	"github.com/p-n-ai/codemaster/internal/curriculum"
	"github.com/p-n-ai/codemaster/internal/platform/cache"
	"github.com/p-n-ai/codemaster/internal/platform/config"
	"github.com/p-n-ai/codemaster/internal/platform/database"
	"github.com/p-n-ai/codemaster/internal/progress"
	"github.com/p-n-ai/codemaster/internal/quiz"
	"github.com/p-n-ai/codemaster/internal/server"
	"github.com/p-n-ai/codemaster/internal/tutor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.Static.MirrorAssets {
		go a.syncAssets(ctx)
		if cfg.Static.RefreshHours > 0 {
			a.refresher = assets.NewRefresher(a.mirror, cfg.Static.RefreshHours)
			if err := a.refresher.Start(); err != nil {
				return err
			}
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "ai", a.router.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// app is the wired dependency graph of one server process.
type app struct {
	handler   http.Handler
	router    *ai.Router
	mirror    *assets.Mirror
	refresher *assets.Refresher
	db        *database.DB
	cache     *cache.Cache
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var checks []server.Checker
	var events interface {
		progress.EventLogger
		server.EventReader
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.db = db
		checks = append(checks, db)

		pg := progress.NewPostgresEventLogger(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		events = pg
		slog.Info("activity log using postgres")
	} else {
		events = progress.NewMemoryEventLogger()
	}

	var replies tutor.ReplyCache = tutor.NewMemoryCache()
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cache = c
		checks = append(checks, c)
		replies = tutor.NewRedisCache(c.Client)
		slog.Info("tutor replies cached in redis")
	}

	a.router, err = newAIRouter(cfg.AI)
	if err != nil {
		a.close()
		return nil, err
	}
	if !a.router.HasProvider() {
		slog.Warn("no AI provider configured, tutor runs offline")
	}

	store := progress.NewFileStore(cfg.Progress.Path)
	a.mirror = assets.NewMirror(cfg.Static.AssetsDir, assets.DefaultLibraries)

	a.handler = server.New(server.Deps{
		Catalog: catalog,
		Progress: progress.NewEngine(progress.EngineConfig{
			Store:   store,
			Catalog: catalog,
			Events:  events,
		}),
		Quiz: quiz.NewScorer(catalog, quiz.Config{
			DefaultLength: cfg.Quiz.DefaultLength,
			MaxLength:     cfg.Quiz.MaxLength,
		}),
		Tutor: tutor.New(tutor.Config{
			AI:       a.router,
			Cache:    replies,
			CacheTTL: time.Duration(cfg.Cache.ReplyTTLMinutes) * time.Minute,
		}),
		Assets:      a.mirror,
		Events:      events,
		StaticDir:   cfg.Static.Dir,
		CORSOrigins: cfg.Server.CORSOrigins,
		Checks:      checks,
	})

	slog.Info("progress store ready", "path", store.Path())
	return a, nil
}

func (a *app) syncAssets(ctx context.Context) {
	res, err := a.mirror.Sync(ctx)
	if err != nil {
		slog.Warn("asset mirror sync aborted", "error", err)
		return
	}
	slog.Info("asset mirror synced", "downloaded", res.Downloaded, "present", res.Present, "failed", res.Failed)
}

func (a *app) close() {
	if a.refresher != nil {
		a.refresher.Stop()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func loadCatalog(dir string) (*curriculum.Catalog, error) {
	if dir == "" {
		return curriculum.Default()
	}
	return curriculum.LoadDir(dir)
}

// newAIRouter registers a provider for every configured API key, Anthropic first.
func newAIRouter(cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()

	if cfg.Anthropic.APIKey != "" {
		var opts []ai.AnthropicOption
		if cfg.Anthropic.Model != "" {
			opts = append(opts, ai.WithAnthropicModel(cfg.Anthropic.Model))
		}
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		router.Register(p)
	}

	if cfg.OpenAI.APIKey != "" {
		var opts []ai.OpenAIOption
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.Model != "" {
			opts = append(opts, ai.WithOpenAIModel(cfg.OpenAI.Model))
		}
		p, err := ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		router.Register(p)
	}

	return router, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
