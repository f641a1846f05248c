// Package server exposes an editing session and the diagram store over HTTP.
//
// All routes live under /api/v1 except the health check. Errors are JSON
// objects carrying the error code:
//
//	{"code": "INVALID_DOCUMENT", "error": "document failed validation: ...", "issues": [...]}
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/netdraw/pkg/buildinfo"
	"github.com/matzehuels/netdraw/pkg/editor"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/store"
)

// Server serves one editor session.
type Server struct {
	editor *editor.Editor
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server. A nil runner renders without caching.
func New(ed *editor.Editor, st store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{editor: ed, store: st, runner: runner, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.SetHeader("Server", buildinfo.ServerHeader()))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", s.handleTools)
		r.Put("/tool", s.handleSelectTool)
		r.Get("/state", s.handleState)
		r.Post("/reset", s.handleReset)
		r.Put("/import-dialog", s.handleImportDialog)
		r.Put("/page", s.handleSelectPage)
		r.Post("/pages", s.handleAddPage)
		r.Delete("/pages/{id}", s.handleRemovePage)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/inspect", s.handleInspect)
		r.Get("/document", s.handleDocument)
		r.Post("/place", s.handlePlace)
		r.Get("/elements/{id}", s.handleElement)
		r.Patch("/elements/{id}", s.handleUpdateElement)
		r.Post("/elements/{id}/move", s.handleMoveElement)
		r.Delete("/elements/{id}", s.handleRemoveElement)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)

		r.Route("/diagrams", func(r chi.Router) {
			r.Get("/", s.handleListDiagrams)
			r.Post("/", s.handleSaveDiagram)
			r.Get("/{id}", s.handleGetDiagram)
			r.Put("/{id}", s.handlePutDiagram)
			r.Delete("/{id}", s.handleDeleteDiagram)
			r.Post("/{id}/open", s.handleOpenDiagram)
			r.Get("/{id}/render.{format}", s.handleRenderDiagram)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// maxBodySize bounds request bodies; imports are the largest.
const maxBodySize = pkgio.MaxImportSize + 1<<20
