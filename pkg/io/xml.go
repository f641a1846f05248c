package io

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// xmlHost is written to the mxfile host attribute.
const xmlHost = "netdraw"

type mxFile struct {
	XMLName  xml.Name    `xml:"mxfile"`
	Host     string      `xml:"host,attr,omitempty"`
	Version  string      `xml:"version,attr,omitempty"`
	Diagrams []mxDiagram `xml:"diagram"`
}

type mxDiagram struct {
	ID    string        `xml:"id,attr,omitempty"`
	Name  string        `xml:"name,attr,omitempty"`
	Model *mxGraphModel `xml:"mxGraphModel"`
	// Compressed holds a deflated, base64 encoded model.
	Compressed string `xml:",chardata"`
}

type mxGraphModel struct {
	XMLName xml.Name `xml:"mxGraphModel"`
	Root    mxRoot   `xml:"root"`
}

type mxRoot struct {
	Cells []mxCell `xml:"mxCell"`
	// Skipped counts <object> wrappers that held no cell.
	Skipped int `xml:"-"`
}

// mxObject is the wrapper draw.io writes around a cell that carries custom
// properties. The cell's id and value move onto the wrapper.
type mxObject struct {
	ID    string     `xml:"id,attr"`
	Label string     `xml:"label,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Cell  *mxCell    `xml:"mxCell"`
}

// UnmarshalXML reads cells in document order, unwrapping <object> and
// <UserObject> elements. An "ip" property on the wrapper is kept as the
// cell's ip style key.
func (r *mxRoot) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "mxCell":
				var c mxCell
				if err := d.DecodeElement(&c, &t); err != nil {
					return err
				}
				r.Cells = append(r.Cells, c)
			case "object", "UserObject":
				var o mxObject
				if err := d.DecodeElement(&o, &t); err != nil {
					return err
				}
				if o.Cell == nil {
					r.Skipped++
					continue
				}
				r.Cells = append(r.Cells, o.cell())
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (o mxObject) cell() mxCell {
	c := *o.Cell
	c.ID = o.ID
	if c.Value == "" {
		c.Value = o.Label
	}
	for _, a := range o.Attrs {
		if _, ok := parseStyle(c.Style)["ip"]; a.Name.Local == "ip" && !ok {
			if c.Style != "" && !strings.HasSuffix(c.Style, ";") {
				c.Style += ";"
			}
			c.Style += "ip=" + a.Value + ";"
		}
	}
	return c
}

type mxCell struct {
	ID       string      `xml:"id,attr"`
	Value    string      `xml:"value,attr,omitempty"`
	Style    string      `xml:"style,attr,omitempty"`
	Parent   string      `xml:"parent,attr,omitempty"`
	Vertex   string      `xml:"vertex,attr,omitempty"`
	Edge     string      `xml:"edge,attr,omitempty"`
	Source   string      `xml:"source,attr,omitempty"`
	Target   string      `xml:"target,attr,omitempty"`
	Geometry *mxGeometry `xml:"mxGeometry"`
}

type mxGeometry struct {
	X        float64 `xml:"x,attr,omitempty"`
	Y        float64 `xml:"y,attr,omitempty"`
	Width    float64 `xml:"width,attr,omitempty"`
	Height   float64 `xml:"height,attr,omitempty"`
	Relative string  `xml:"relative,attr,omitempty"`
	As       string  `xml:"as,attr"`
}

// WriteXML encodes d as a draw.io mxfile with one diagram per page.
// Network attributes that draw.io has no field for are kept as custom style
// keys (netdraw, device, ip) so the file reads back without loss.
func WriteXML(d *diagram.Document, w io.Writer) error {
	f := mxFile{Host: xmlHost, Version: d.Version}
	for _, p := range d.Pages {
		f.Diagrams = append(f.Diagrams, mxDiagram{ID: p.ID, Name: p.Name, Model: modelFor(p)})
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func modelFor(p *diagram.Page) *mxGraphModel {
	rootID, layerID := layerIDs(p)
	cells := []mxCell{{ID: rootID}, {ID: layerID, Parent: rootID}}
	for _, e := range p.Elements {
		cells = append(cells, cellFor(e, layerID))
	}
	return &mxGraphModel{Root: mxRoot{Cells: cells}}
}

// layerIDs picks IDs for the two structural cells every draw.io model
// starts with, avoiding element IDs.
func layerIDs(p *diagram.Page) (string, string) {
	root, layer := "0", "1"
	for p.Element(root) != nil || p.Element(layer) != nil {
		root, layer = root+"_", layer+"_"
	}
	return root, layer
}

func cellFor(e diagram.Element, parent string) mxCell {
	var st styleBuilder
	c := mxCell{ID: e.ID, Parent: parent}

	switch e.Kind {
	case diagram.KindDevice:
		st.flag("rounded", "1")
		st.flag("whiteSpace", "wrap")
		st.flag("netdraw", "device")
		st.flag("device", string(e.Device))
		if e.IP != "" {
			st.flag("ip", e.IP)
		}
		c.Value = e.Name
		c.Vertex = "1"
	case diagram.KindText:
		st.bare("text")
		st.flag("netdraw", "text")
		c.Value = e.Text
		c.Vertex = "1"
	case diagram.KindConnection:
		st.flag("endArrow", "none")
		st.flag("netdraw", "connection")
		c.Edge = "1"
		c.Source = e.Source
		c.Target = e.Target
		c.Geometry = &mxGeometry{Relative: "1", As: "geometry"}
	}

	if s := e.Style; s != nil {
		if s.Fill != "" {
			st.flag("fillColor", s.Fill)
		}
		if s.Stroke != "" {
			st.flag("strokeColor", s.Stroke)
		}
		if s.StrokeWidth > 0 {
			st.flag("strokeWidth", formatFloat(s.StrokeWidth))
		}
		switch s.Dash {
		case diagram.DashDashed:
			st.flag("dashed", "1")
		case diagram.DashDotted:
			st.flag("dashed", "1")
			st.flag("dashPattern", "1 2")
		case diagram.DashSolid:
			st.flag("dashed", "0")
		}
	}

	if !e.IsConnection() {
		c.Geometry = &mxGeometry{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, As: "geometry"}
	}
	c.Style = st.String()
	return c
}

type styleBuilder struct{ b strings.Builder }

func (s *styleBuilder) bare(name string) { s.b.WriteString(name + ";") }

func (s *styleBuilder) flag(k, v string) { s.b.WriteString(k + "=" + v + ";") }

func (s *styleBuilder) String() string { return s.b.String() }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// decodeXML reads an <mxfile> or a bare <mxGraphModel>.
func decodeXML(data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}

	c := &xmlConverter{}
	d := &diagram.Document{Version: diagram.CurrentVersion, Type: diagram.DocumentType}

	switch root {
	case "mxfile":
		var f mxFile
		if err := xml.Unmarshal(data, &f); err != nil {
			return nil, malformedXML(err)
		}
		for i, dg := range f.Diagrams {
			model, err := diagramModel(dg)
			if err != nil {
				return nil, err
			}
			id, name := dg.ID, dg.Name
			if id == "" {
				id = fmt.Sprintf("page%d", i+1)
			}
			if name == "" {
				name = fmt.Sprintf("Page %d", i+1)
			}
			d.Pages = append(d.Pages, c.page(id, name, model))
		}
	case "mxGraphModel":
		var m mxGraphModel
		if err := xml.Unmarshal(data, &m); err != nil {
			return nil, malformedXML(err)
		}
		d.Pages = append(d.Pages, c.page(diagram.DefaultPageID, diagram.DefaultPageName, &m))
	default:
		return nil, errors.New(errors.ErrCodeMalformedImport, "unexpected root element <%s> (want <mxfile> or <mxGraphModel>)", root)
	}

	if err := diagram.Validate(d); err != nil {
		return nil, err
	}
	return &Result{Document: d, Format: FormatXML, Warnings: c.warnings}, nil
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", malformedXML(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func malformedXML(err error) error {
	if err == io.EOF {
		return errors.New(errors.ErrCodeMalformedImport, "file is not valid XML (no root element)")
	}
	return errors.Wrap(errors.ErrCodeMalformedImport, err, "file is not valid XML")
}

// diagramModel returns the model of dg, inflating it when draw.io stored it
// compressed.
func diagramModel(dg mxDiagram) (*mxGraphModel, error) {
	if dg.Model != nil {
		return dg.Model, nil
	}
	body := strings.TrimSpace(dg.Compressed)
	if body == "" {
		return &mxGraphModel{}, nil
	}
	raw, err := inflate(body)
	if err == errInflateLimit {
		return nil, errors.New(errors.ErrCodeMalformedImport, "diagram %q: decompressed diagram exceeds %d MiB", dg.Name, MaxImportSize>>20)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedImport, err, "diagram %q: cannot decompress", dg.Name)
	}
	var m mxGraphModel
	if err := xml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedImport, err, "diagram %q: invalid model", dg.Name)
	}
	return &m, nil
}

// errInflateLimit reports a compressed diagram that inflates past
// MaxImportSize.
var errInflateLimit = fmt.Errorf("inflated diagram exceeds %d bytes", MaxImportSize)

// inflate reverses draw.io compression: base64, then raw deflate, then URI
// encoding. The inflated size is bounded by MaxImportSize.
func inflate(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	b, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(b) > MaxImportSize {
		return nil, errInflateLimit
	}
	text, err := url.PathUnescape(string(b))
	if err != nil {
		return nil, fmt.Errorf("unescape: %w", err)
	}
	return []byte(text), nil
}

type xmlConverter struct {
	warnings []string
}

func (c *xmlConverter) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *xmlConverter) page(id, name string, m *mxGraphModel) *diagram.Page {
	p := &diagram.Page{ID: id, Name: name, Elements: []diagram.Element{}}
	if m.Root.Skipped > 0 {
		c.warnf("page %q: %d object wrapper(s) without a cell skipped", name, m.Root.Skipped)
	}

	// Vertices are resolved first so edges can check their endpoints;
	// elements are then emitted in cell order.
	vertices := make(map[int]diagram.Element)
	devices := map[string]bool{}
	for i, cell := range m.Root.Cells {
		if cell.Vertex != "1" {
			continue
		}
		if e, ok := c.vertex(cell); ok {
			vertices[i] = e
			if e.Kind == diagram.KindDevice {
				devices[e.ID] = true
			}
		}
	}

	seen := map[string]bool{}
	for i, cell := range m.Root.Cells {
		e, ok := vertices[i]
		if !ok {
			if cell.Edge != "1" {
				continue
			}
			if !devices[cell.Source] || !devices[cell.Target] || cell.Source == cell.Target {
				c.warnf("page %q: edge %s dropped: endpoints must be two different devices", name, cell.ID)
				continue
			}
			e = diagram.Element{
				ID:     cellID(cell.ID),
				Kind:   diagram.KindConnection,
				Source: cell.Source,
				Target: cell.Target,
				Style:  styleFrom(parseStyle(cell.Style)),
			}
		}
		if seen[e.ID] {
			c.warnf("page %q: duplicate cell id %s skipped", name, e.ID)
			continue
		}
		seen[e.ID] = true
		p.Elements = append(p.Elements, e)
	}
	return p
}

func (c *xmlConverter) vertex(cell mxCell) (diagram.Element, bool) {
	st := parseStyle(cell.Style)
	label := cell.Value
	if st["html"] == "1" {
		label = stripHTML(label)
	}

	e := diagram.Element{ID: cellID(cell.ID), Style: styleFrom(st)}
	if g := cell.Geometry; g != nil {
		e.X, e.Y, e.Width, e.Height = g.X, g.Y, g.Width, g.Height
	}

	_, isText := st["text"]
	switch {
	case st["netdraw"] == "text" || isText:
		e.Kind = diagram.KindText
		e.Text = label
	case deviceHint(cell.Style, st) != "":
		e.Kind = diagram.KindDevice
		e.Device = deviceHint(cell.Style, st)
		e.Name = label
		e.IP = st["ip"]
	case strings.TrimSpace(label) != "":
		c.warnf("cell %s has no network meaning; imported as text", cell.ID)
		e.Kind = diagram.KindText
		e.Text = label
	default:
		c.warnf("cell %s has no network meaning and no label; skipped", cell.ID)
		return e, false
	}

	w, h := diagram.DefaultWidth, diagram.DefaultHeight
	if e.Kind == diagram.KindText {
		w, h = diagram.DefaultTextWidth, diagram.DefaultTextHeight
	}
	if e.Width <= 0 {
		e.Width = w
	}
	if e.Height <= 0 {
		e.Height = h
	}
	return e, true
}

func cellID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// parseStyle splits a draw.io style string. Bare tokens such as "text" or
// "ellipse" map to the empty string.
func parseStyle(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		out[k] = v
	}
	return out
}

// shapeHints maps substrings of draw.io shape names to device types.
// Order matters: "wireless_router" must match wifi before router.
var shapeHints = []struct {
	needle string
	device diagram.DeviceType
}{
	{"access_point", diagram.DeviceWifi},
	{"wireless", diagram.DeviceWifi},
	{"wifi", diagram.DeviceWifi},
	{"router", diagram.DeviceRouter},
	{"switch", diagram.DeviceRouter},
	{"server", diagram.DeviceServer},
	{"laptop", diagram.DeviceLaptop},
	{"pc", diagram.DeviceLaptop},
	{"workstation", diagram.DeviceLaptop},
	{"computer", diagram.DeviceLaptop},
	{"mobile", diagram.DeviceSmartphone},
	{"phone", diagram.DeviceSmartphone},
	{"tablet", diagram.DeviceSmartphone},
}

func deviceHint(raw string, st map[string]string) diagram.DeviceType {
	if st["netdraw"] == "device" && diagram.IsDeviceType(st["device"]) {
		return diagram.DeviceType(st["device"])
	}
	shape := strings.ToLower(st["shape"])
	if shape == "" {
		shape = strings.ToLower(raw)
	}
	for _, h := range shapeHints {
		if strings.Contains(shape, h.needle) {
			return h.device
		}
	}
	return ""
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// styleFrom extracts the properties netdraw keeps. It returns nil when the
// cell sets none of them, so such elements fall back to defaults.
func styleFrom(st map[string]string) *diagram.Style {
	var s diagram.Style
	set := false
	if v := st["fillColor"]; hexColor.MatchString(v) {
		s.Fill, set = strings.ToLower(v), true
	}
	if v := st["strokeColor"]; hexColor.MatchString(v) {
		s.Stroke, set = strings.ToLower(v), true
	}
	if v, err := strconv.ParseFloat(st["strokeWidth"], 64); err == nil && v > 0 {
		s.StrokeWidth, set = math.Min(v, diagram.MaxStrokeWidth), true
	}
	switch {
	case st["dashed"] == "1" && isDotted(st["dashPattern"]):
		s.Dash, set = diagram.DashDotted, true
	case st["dashed"] == "1":
		s.Dash, set = diagram.DashDashed, true
	case st["dashed"] == "0":
		s.Dash, set = diagram.DashSolid, true
	}
	if !set {
		return nil
	}
	return &s
}

// isDotted reports whether a dash pattern has dashes no longer than its gaps
// and at most two units long.
func isDotted(pattern string) bool {
	f := strings.Fields(pattern)
	if len(f) < 2 {
		return false
	}
	dash, err1 := strconv.ParseFloat(f[0], 64)
	gap, err2 := strconv.ParseFloat(f[1], 64)
	return err1 == nil && err2 == nil && dash <= 2 && dash <= gap
}

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// stripHTML reduces an html=1 label to plain text.
func stripHTML(s string) string {
	s = breakTag.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}
