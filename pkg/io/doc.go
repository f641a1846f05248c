// Package io provides import and export of network diagram documents.
//
// # Overview
//
// This package serializes a [diagram.Document] to and from files. Two
// encodings are supported:
//
//   - JSON (the native ".drawio" format written by the editor)
//   - draw.io XML (an <mxfile> with one <diagram> per page)
//
// # JSON Format
//
// The native format is pretty-printed with two-space indentation:
//
//	{
//	  "version": "1.0",
//	  "type": "drawio",
//	  "pages": [
//	    {
//	      "id": "page1",
//	      "name": "Network Diagram",
//	      "elements": []
//	    }
//	  ]
//	}
//
// An empty editor always exports exactly this document. The suggested file
// name is [ExportFilename].
//
// # Export
//
// Use [WriteJSON] or [WriteXML] to write to any io.Writer, or [Export] to
// write a file:
//
//	err := io.Export(doc, "network-diagram.drawio", io.FormatJSON)
//
// # Import
//
// Import accepts files ending in .drawio, .xml or .json. [Read] sniffs the
// content: input starting with '<' is parsed as draw.io XML (compressed
// diagrams included), anything else as JSON. The decoded document is then
// validated with [diagram.Validate]:
//
//	res, err := io.Import("office.drawio")
//	if err != nil {
//	    fmt.Println(errors.UserMessage(err)) // user-visible reason
//	}
//
// Errors carry codes from pkg/errors: MALFORMED_IMPORT when the bytes do not
// parse, INVALID_DOCUMENT with every schema violation when they parse but do
// not describe a valid diagram, UNSUPPORTED_VERSION for a foreign major
// version, and INVALID_FORMAT for a rejected file extension.
//
// [Inspect] keeps the lenient behavior of the first editor release: it parses
// any JSON value without applying a schema and never fails the caller.
//
// # Concurrency
//
// All functions are safe for concurrent use. Decoded documents are
// independent of their input.
package io
