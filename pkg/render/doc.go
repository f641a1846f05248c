// Package render draws diagram pages with Graphviz.
//
// # Overview
//
// [ToDOT] converts a [diagram.Page] into an undirected Graphviz graph:
//
//   - devices become rounded boxes filled with their style colors and
//     labeled with name and IP address
//   - text elements become plaintext nodes
//   - connections become edges carrying their dash style and pen width
//
// [RenderSVG] and [RenderPNG] run Graphviz in-process (go-graphviz, no
// external binary) on the DOT source:
//
//	dot := render.ToDOT(page, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot, render.Options{})
//
// # Layout
//
// By default Graphviz lays the page out itself. With [Options.Pinned] the
// element coordinates from the document are kept (neato with pinned
// positions), which matches what the editor canvas shows.
//
// [Render] dispatches on a [Format] name and is what the CLI, the HTTP API,
// and the pipeline call.
package render
