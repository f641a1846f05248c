package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists every supported output format.
var Formats = []Format{FormatSVG, FormatPNG, FormatDOT}

// ParseFormats parses a comma-separated list such as "svg,png". Duplicates
// are dropped; the empty string means svg.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return []Format{FormatSVG}, nil
	}
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case FormatDOT, FormatSVG, FormatPNG:
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot)", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Options configures rendering.
type Options struct {
	// Pinned keeps element positions from the document instead of letting
	// Graphviz lay the page out.
	Pinned bool
	// Detailed adds device type and element ID to labels.
	Detailed bool
}

// pointsPerInch converts canvas pixels to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT converts a page to Graphviz DOT source.
func ToDOT(p *diagram.Page, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", p.Name)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [penwidth=2];\n")
	if !opts.Pinned {
		buf.WriteString("  nodesep=0.4;\n")
	}
	buf.WriteString("\n")

	for _, e := range p.Elements {
		if e.IsConnection() {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", e.ID, strings.Join(nodeAttrs(e, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range p.Connections() {
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(e diagram.Element, opts Options) []string {
	st := e.EffectiveStyle()
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(e, opts.Detailed))}

	if e.Kind == diagram.KindText {
		attrs = append(attrs, "shape=plaintext", "style=\"\"")
		if st.Stroke != "" {
			attrs = append(attrs, fmt.Sprintf("fontcolor=%q", st.Stroke))
		}
	} else {
		attrs = append(attrs,
			fmt.Sprintf("fillcolor=%q", st.Fill),
			fmt.Sprintf("color=%q", st.Stroke),
			"penwidth="+formatFloat(st.StrokeWidth),
		)
		if st.Dash != diagram.DashSolid {
			attrs = append(attrs, fmt.Sprintf("style=\"rounded,filled,%s\"", st.Dash))
		}
	}

	if opts.Pinned {
		cx, cy := e.Center()
		// Graphviz y grows upwards.
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", formatFloat(cx/pointsPerInch), formatFloat(-cy/pointsPerInch)))
		if e.Width > 0 && e.Height > 0 {
			attrs = append(attrs,
				"width="+formatFloat(e.Width/pointsPerInch),
				"height="+formatFloat(e.Height/pointsPerInch),
				"fixedsize=true")
		}
	}
	return attrs
}

func nodeLabel(e diagram.Element, detailed bool) string {
	parts := []string{e.Label()}
	if e.IP != "" {
		parts = append(parts, e.IP)
	}
	if detailed {
		if e.Device != "" && e.Name != "" {
			parts = append(parts, string(e.Device))
		}
		parts = append(parts, "id: "+e.ID)
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e diagram.Element) []string {
	st := e.EffectiveStyle()
	attrs := []string{
		fmt.Sprintf("color=%q", st.Stroke),
		"penwidth=" + formatFloat(st.StrokeWidth),
	}
	if st.Dash != diagram.DashSolid {
		attrs = append(attrs, "style="+string(st.Dash))
	}
	if e.Name != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Name))
	}
	return attrs
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Render produces the page in format f.
func Render(ctx context.Context, p *diagram.Page, f Format, opts Options) ([]byte, error) {
	dot := ToDOT(p, opts)
	switch f {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot, opts)
	case FormatPNG:
		return RenderPNG(ctx, dot, opts)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", f)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string, opts Options) ([]byte, error) {
	out, err := run(ctx, dot, graphviz.SVG, opts)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string, opts Options) ([]byte, error) {
	return run(ctx, dot, graphviz.PNG, opts)
}

func run(ctx context.Context, dot string, format graphviz.Format, opts Options) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if opts.Pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
