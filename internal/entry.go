// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notepad/internal/api"
	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/mcpserver"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/noteservice"
	"github.com/starford/notepad/internal/sse"
	"github.com/starford/notepad/internal/storage"
	"github.com/starford/notepad/internal/watch"
)

// App is an opened note workspace: storage, persistence, the loaded store
// and the command service on top of it.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *notepad.Store
	Service *noteservice.Service

	db *index.DB
}

// Open builds every component shared by the commands and loads the notes.
// A malformed persisted list is logged and the workspace starts empty.
func Open(ctx context.Context, opts ...Option) (*App, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	return open(ctx, app)
}

func open(ctx context.Context, app *application) (*App, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	scope, err := cfg.Notepad.Scope()
	if err != nil {
		return nil, err
	}

	// Ensure the notes directory exists so it can be watched.
	if err := os.MkdirAll(filepath.Join(cfg.Notepad.Root, notepad.Dir), 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Notepad.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	ws := db.Workspace(scope)

	storeOpts := []notepad.StoreOption{
		notepad.WithLogger(logger),
		notepad.WithUniqueLabels(cfg.Notepad.Unique()),
		notepad.WithSeedText(cfg.Notepad.SeedText),
	}
	if app.opener != nil {
		storeOpts = append(storeOpts, notepad.WithOpener(app.opener))
	}
	store := notepad.NewStore(files, ws, storeOpts...)

	prompt := app.prompt
	if prompt == nil {
		prompt = noPrompt{}
	}
	report := app.report
	if report == nil {
		report = logReporter{logger: logger}
	}
	svc := noteservice.NewService(store, ws, prompt, report, logger)

	// Loading emits a root change, which also brings the search index in sync.
	if err := store.Load(ctx); err != nil {
		if !errors.Is(err, apperr.ErrMalformed) {
			db.Close()
			return nil, fmt.Errorf("load notes: %w", err)
		}
		logger.Warn("persisted notes unreadable, starting empty", slog.String("error", err.Error()))
	}

	return &App{Config: cfg, Logger: logger, Store: store, Service: svc, db: db}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notes_root", cfg.Notepad.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	a, err := open(ctx, app)
	if err != nil {
		return err
	}
	defer a.Close()

	// SSE broker fed by the store's refresh signal.
	broker := sse.NewBroker(cfg.SSE.RefreshThrottle)
	defer broker.Close()
	a.Service.Subscribe(func(n *notepad.Note) {
		if n == nil {
			broker.PublishChange("")
			return
		}
		broker.PublishChange(n.Label())
	})

	apiRouter := api.NewRouter(a.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Edits made outside the server reach the store as save notifications.
	g.Go(func() error {
		dir := filepath.Join(cfg.Notepad.Root, notepad.Dir)
		err := watch.Watch(gCtx, dir, watch.Options{Suffix: notepad.Ext}, logger, func(path, text string) {
			if _, err := a.Store.DocumentSaved(gCtx, path, text); err != nil {
				logger.Warn("save notification failed", slog.String("path", path), slog.String("error", err.Error()))
			}
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the note tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}

	a, err := open(ctx, app)
	if err != nil {
		return err
	}
	defer a.Close()

	version := app.version
	if version == "" {
		version = "dev"
	}
	return mcpserver.New(a.Service, version).ServeStdio()
}

// noPrompt cancels every prompt; non-interactive modes never ask.
type noPrompt struct{}

func (noPrompt) Prompt(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) Info(msg string)  { r.logger.Info(msg) }
func (r logReporter) Error(msg string) { r.logger.Error(msg) }
