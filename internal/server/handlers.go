package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netdraw/pkg/buildinfo"
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/editor"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type toolsResponse struct {
	Tools  []editor.Tool `json:"tools"`
	Active editor.ToolID `json:"active"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toolsResponse{Tools: editor.Tools(), Active: s.editor.State().Tool.ID})
}

func (s *Server) handleSelectTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool string `json:"tool"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.editor.SelectTool(req.Tool); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.editor.State())
}

// handleExport serves the toolbar export as a download. ?live=true exports
// the session's document instead, optionally as draw.io XML.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if queryBool(r, "live") {
		f, err := pkgio.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.editor.ExportDocument(r.Context(), &buf, f); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else if err := s.editor.Export(r.Context(), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/json"
	if bytes.HasPrefix(buf.Bytes(), []byte("<")) {
		contentType = "application/xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+pkgio.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	res, err := s.editor.Import(r.Context(), body, editor.ImportOptions{
		Name:     q.Get("name"),
		Mode:     diagram.Mode(q.Get("mode")),
		Conflict: diagram.ConflictPolicy(q.Get("conflict")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleInspect always answers 200: inspection reports parse failures in
// the body instead of failing.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	rep := s.editor.Inspect(r.Context(), r.URL.Query().Get("name"), body)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.editor.Document())
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.editor.Place(req.X, req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	var patch diagram.Patch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	el, err := s.editor.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

func (s *Server) handleRemoveElement(w http.ResponseWriter, r *http.Request) {
	removed, err := s.editor.Remove(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"removed": removed})
}

type elementResponse struct {
	Element     diagram.Element   `json:"element"`
	Connections []diagram.Element `json:"connections"`
}

func (s *Server) handleElement(w http.ResponseWriter, r *http.Request) {
	el, conns, err := s.editor.Element(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, elementResponse{Element: el, Connections: conns})
}

func (s *Server) handleMoveElement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.editor.Move(id, req.X, req.Y); err != nil {
		s.writeError(w, r, err)
		return
	}
	el, _, err := s.editor.Element(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

func (s *Server) handleSelectPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.editor.SetActivePage(req.Page); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.State())
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.editor.AddPage(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRemovePage(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.RemovePage(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportDialog shows or hides the import dialog: {"open": true}.
func (s *Server) handleImportDialog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Open bool `json:"open"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Open {
		s.editor.OpenImportDialog()
	} else {
		s.editor.CloseImportDialog()
	}
	writeJSON(w, http.StatusOK, s.editor.State())
}

// handleReset starts over on the default document and drops the history.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.editor.Reset()
	writeJSON(w, http.StatusOK, s.editor.State())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Undo(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.State())
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Redo(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.State())
}

// queryBool reads a boolean query parameter; anything but "true" or "1"
// is false.
func queryBool(r *http.Request, key string) bool {
	v := strings.ToLower(r.URL.Query().Get(key))
	return v == "true" || v == "1"
}

var errNoStore = errors.New(errors.ErrCodeUnsupported, "no diagram store configured")
