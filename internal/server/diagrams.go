package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/editor"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/render"
	"github.com/matzehuels/netdraw/pkg/store"
)

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleSaveDiagram stores the session's current document.
func (s *Server) handleSaveDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	var req struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	rec := &store.Record{ID: req.ID, Name: req.Name, Document: s.editor.Document()}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePutDiagram stores the request body, a document in any importable
// format, under the URL's id.
func (s *Server) handlePutDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := pkgio.Decode(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec := &store.Record{
		ID:       chi.URLParam(r, "id"),
		Name:     r.URL.Query().Get("name"),
		Document: res.Document,
	}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenDiagram loads a stored diagram into the session as an undoable
// import.
func (s *Server) handleOpenDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(rec.Document, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.editor.Import(r.Context(), &buf, editor.ImportOptions{
		Name:     rec.ID + ".json",
		Mode:     diagram.Mode(r.URL.Query().Get("mode")),
		Conflict: diagram.ConflictPolicy(r.URL.Query().Get("conflict")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

var contentTypes = map[render.Format]string{
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatDOT: "text/vnd.graphviz",
}

func (s *Server) handleRenderDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	formats, err := render.ParseFormats(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(formats) != 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "render one format at a time"))
		return
	}
	f := formats[0]

	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, hit, err := s.runner.RenderWithCacheInfo(r.Context(), rec.Document, pipeline.Options{
		Page:     r.URL.Query().Get("page"),
		Formats:  formats,
		Pinned:   queryBool(r, "pinned"),
		Detailed: queryBool(r, "detailed"),
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out[f])
}
