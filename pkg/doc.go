// Package pkg provides the core libraries for netdraw, a network diagram
// editor.
//
// # Overview
//
// netdraw edits diagrams of routers, servers, laptops, phones and WiFi
// access points joined by connections, and exchanges them as draw.io
// compatible files. The pkg directory is organized into these areas:
//
//  1. [diagram] - The document model, validation, and merging
//  2. [editor] - The editing session: toolbar, placement, import, undo
//  3. [io] - JSON and draw.io XML encoding
//  4. [render] - Graphviz rendering to SVG, PNG and DOT
//  5. [pipeline] - Orchestration (import → render) with caching
//  6. [cache], [store] - Artifact caching and diagram persistence
//
// # Architecture
//
// The typical data flow through netdraw:
//
//	.drawio / .json / .xml file
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [editor] package (live document, undo history)
//	         ↓
//	    [render] / [io] packages
//	         ↓
//	SVG/PNG/DOT output, or an exported file
//
// # Quick Start
//
//	ed := editor.New()
//	ed.SelectTool("router")
//	ed.Place(120, 80)
//
//	var buf bytes.Buffer
//	err := ed.ExportDocument(ctx, &buf, io.FormatJSON)
//
// [diagram]: github.com/matzehuels/netdraw/pkg/diagram
// [editor]: github.com/matzehuels/netdraw/pkg/editor
// [io]: github.com/matzehuels/netdraw/pkg/io
// [render]: github.com/matzehuels/netdraw/pkg/render
// [pipeline]: github.com/matzehuels/netdraw/pkg/pipeline
// [cache]: github.com/matzehuels/netdraw/pkg/cache
// [store]: github.com/matzehuels/netdraw/pkg/store
package pkg
