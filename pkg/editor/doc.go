// Package editor holds the state of one network diagram editing session.
//
// An [Editor] owns the live document and the UI state around it: the active
// toolbar tool, the import dialog, the active page, the current selection,
// and a half-made connection. It is the model the CLI toolbar, the HTTP API,
// and the MCP tools drive.
//
// # Tools
//
// [Tools] lists the toolbar in display order. Selecting a tool with
// [Editor.SelectTool] changes nothing but the active tool. What a tool does
// happens in [Editor.Place], which applies it at a canvas point.
//
// # Import and Export
//
// [Editor.Export] writes the default document regardless of session state,
// as the toolbar export button does. [Editor.ExportDocument] writes the live
// document. [Editor.Inspect] is the lenient import: it parses any JSON,
// logs it, and never touches the session. [Editor.Import] validates and
// applies a document, replacing or merging per [ImportOptions].
//
// # History
//
// Every mutation is undoable. [Editor.Undo] and [Editor.Redo] walk a history
// of [DefaultHistoryLimit] snapshots; a new mutation drops the redo branch.
package editor
