package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/observability"
)

// Editor is one editing session: the live document plus toolbar, dialog,
// and selection state. All methods are safe for concurrent use.
type Editor struct {
	mu sync.Mutex

	doc        *diagram.Document
	page       string
	tool       ToolID
	importOpen bool
	pending    string
	selection  string
	history    *history

	logger *log.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for inspect and import messages.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDocument starts the session on a copy of d instead of the default
// document.
func WithDocument(d *diagram.Document) Option {
	return func(e *Editor) {
		if d != nil && len(d.Pages) > 0 {
			e.doc = d.Clone()
		}
	}
}

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.history = newHistory(n)
		}
	}
}

// New returns an editor on the default document with the select tool active.
func New(opts ...Option) *Editor {
	e := &Editor{
		doc:     diagram.NewDocument(),
		tool:    DefaultTool,
		history: newHistory(DefaultHistoryLimit),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, o := range opts {
		o(e)
	}
	e.page = e.doc.Pages[0].ID
	return e
}

// State is a snapshot of the session's UI state.
type State struct {
	Tool             Tool   `json:"tool"`
	ImportDialogOpen bool   `json:"importDialogOpen"`
	ActivePage       string `json:"activePage"`
	PendingSource    string `json:"pendingSource,omitempty"`
	Selection        string `json:"selection,omitempty"`
	CanUndo          bool   `json:"canUndo"`
	CanRedo          bool   `json:"canRedo"`
}

// State returns the current UI state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, _ := LookupTool(string(e.tool))
	return State{
		Tool:             t,
		ImportDialogOpen: e.importOpen,
		ActivePage:       e.page,
		PendingSource:    e.pending,
		Selection:        e.selection,
		CanUndo:          e.history.canUndo(),
		CanRedo:          e.history.canRedo(),
	}
}

// Document returns a copy of the live document.
func (e *Editor) Document() *diagram.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// SelectTool makes id the active tool. Only the highlighted tool changes:
// the document, selection, and dialog are untouched. Switching away from
// the connection tool drops a half-made connection.
func (e *Editor) SelectTool(id string) (Tool, error) {
	t, err := LookupTool(id)
	if err != nil {
		return Tool{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.ID != ToolConnection {
		e.pending = ""
	}
	e.tool = t.ID
	return t, nil
}

// OpenImportDialog shows the import dialog.
func (e *Editor) OpenImportDialog() {
	e.mu.Lock()
	e.importOpen = true
	e.mu.Unlock()
}

// CloseImportDialog hides the import dialog.
func (e *Editor) CloseImportDialog() {
	e.mu.Lock()
	e.importOpen = false
	e.mu.Unlock()
}

// SetActivePage switches the page that placement and element edits target.
func (e *Editor) SetActivePage(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc.Page(id) == nil {
		return errors.New(errors.ErrCodeNotFound, "page %q not found", id)
	}
	e.page = id
	e.pending, e.selection = "", ""
	return nil
}

// Export writes the default document, whatever the session holds. This is
// the toolbar's export button: a fresh document on every call.
func (e *Editor) Export(ctx context.Context, w io.Writer) error {
	cw := &countingWriter{w: w}
	if err := pkgio.WriteDefault(cw); err != nil {
		return err
	}
	observability.Document().OnExport(ctx, string(pkgio.FormatJSON), cw.n)
	return nil
}

// ExportDocument writes the live document in format f.
func (e *Editor) ExportDocument(ctx context.Context, w io.Writer, f pkgio.Format) error {
	d := e.Document()
	cw := &countingWriter{w: w}
	if err := pkgio.Write(d, cw, f); err != nil {
		return err
	}
	observability.Document().OnExport(ctx, string(f), cw.n)
	return nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// InspectReport is what [Editor.Inspect] found.
type InspectReport struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Inspect parses r as untyped JSON and logs the result: the parsed value at
// debug level, or the parse error. It never changes session state and never
// fails; the report only describes what was logged.
func (e *Editor) Inspect(ctx context.Context, name string, r io.Reader) InspectReport {
	rep := InspectReport{Name: name}
	if name != "" {
		if err := errors.ValidateImportPath(name); err != nil {
			rep.Error = errors.UserMessage(err)
			e.logger.Error("error parsing file", "file", name, "err", rep.Error)
			return rep
		}
	}
	v, err := pkgio.Inspect(r)
	if err != nil {
		rep.Error = errors.UserMessage(err)
		e.logger.Error("error parsing file", "file", name, "err", rep.Error)
		return rep
	}
	rep.Valid, rep.Data = true, v
	e.logger.Debug("imported data", "file", name, "data", v)
	return rep
}

// ImportOptions controls how an imported document is applied.
type ImportOptions struct {
	// Name is the file name; when set its extension must be accepted.
	Name     string
	Mode     diagram.Mode
	Conflict diagram.ConflictPolicy
}

// ImportResult describes an applied import.
type ImportResult struct {
	Format   pkgio.Format         `json:"format"`
	Mode     diagram.Mode         `json:"mode"`
	Stats    diagram.Stats        `json:"stats"`
	Merge    *diagram.MergeReport `json:"merge,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Import decodes r, validates it, and applies it to the live document.
// On any error the session is unchanged. A successful import is undoable,
// closes the import dialog, and clears the selection.
func (e *Editor) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	source := opts.Name
	if source == "" {
		source = "stream"
	}
	start := time.Now()
	observability.Document().OnImportStart(ctx, source)

	res, err := e.importDoc(ctx, r, opts)

	n := 0
	if res != nil {
		n = res.Stats.Devices + res.Stats.Connections + res.Stats.Texts
	}
	observability.Document().OnImportComplete(ctx, source, n, time.Since(start), err)
	if err != nil {
		e.logger.Error("import failed", "file", source, "err", errors.UserMessage(err))
		return nil, err
	}
	for _, w := range res.Warnings {
		e.logger.Warn(w, "file", source)
	}
	e.logger.Info("imported diagram", "file", source, "mode", res.Mode, "devices", res.Stats.Devices, "connections", res.Stats.Connections)
	return res, nil
}

func (e *Editor) importDoc(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if opts.Name != "" {
		if err := errors.ValidateImportPath(opts.Name); err != nil {
			return nil, err
		}
	}
	mode, err := diagram.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	policy, err := diagram.ParseConflictPolicy(string(opts.Conflict))
	if err != nil {
		return nil, err
	}

	decoded, err := pkgio.Read(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := &ImportResult{Format: decoded.Format, Mode: mode, Warnings: decoded.Warnings}
	next := decoded.Document
	if mode == diagram.ModeMerge {
		next = e.doc.Clone()
		rep, err := diagram.Merge(next, decoded.Document, policy)
		if err != nil {
			return nil, err
		}
		res.Merge = &rep
	}

	e.history.push(e.doc)
	e.doc = next
	if e.doc.Page(e.page) == nil {
		e.page = e.doc.Pages[0].ID
	}
	e.pending, e.selection = "", ""
	e.importOpen = false
	res.Stats = e.doc.Stats()
	return res, nil
}

// Reset discards the document and history and restores the default state.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = diagram.NewDocument()
	e.page = e.doc.Pages[0].ID
	e.tool = DefaultTool
	e.importOpen = false
	e.pending, e.selection = "", ""
	e.history.clear()
}
