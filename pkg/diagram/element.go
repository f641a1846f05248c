package diagram

// Kind classifies an element.
type Kind string

// Element kinds.
const (
	KindDevice     Kind = "device"
	KindConnection Kind = "connection"
	KindText       Kind = "text"
)

// DeviceType is the kind of network node a device element represents.
type DeviceType string

// Device types offered by the toolbar.
const (
	DeviceRouter     DeviceType = "router"
	DeviceServer     DeviceType = "server"
	DeviceLaptop     DeviceType = "laptop"
	DeviceSmartphone DeviceType = "smartphone"
	DeviceWifi       DeviceType = "wifi"
)

// DeviceTypes lists every device type in toolbar order.
var DeviceTypes = []DeviceType{DeviceRouter, DeviceServer, DeviceLaptop, DeviceSmartphone, DeviceWifi}

// IsDeviceType reports whether s names a known device type.
func IsDeviceType(s string) bool {
	for _, t := range DeviceTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Dash is a stroke pattern.
type Dash string

// Stroke patterns.
const (
	DashSolid  Dash = "solid"
	DashDashed Dash = "dashed"
	DashDotted Dash = "dotted"
)

// Default geometry and stroke values.
const (
	DefaultWidth       = 96.0
	DefaultHeight      = 64.0
	DefaultTextWidth   = 120.0
	DefaultTextHeight  = 24.0
	DefaultStrokeWidth = 2.0
	MaxStrokeWidth     = 20.0
)

// Style holds the visual properties of an element.
type Style struct {
	Fill        string  `json:"fill,omitempty" validate:"omitempty,hexcolor"`
	Stroke      string  `json:"stroke,omitempty" validate:"omitempty,hexcolor"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" validate:"gte=0,lte=20"`
	Dash        Dash    `json:"dash,omitempty" validate:"omitempty,oneof=solid dashed dotted"`
}

// Element is a single item on a page. Which fields are meaningful depends
// on Kind: devices use Device, Name, IP and geometry; connections use Source
// and Target; text uses Text and geometry.
type Element struct {
	ID     string     `json:"id" validate:"required,max=128"`
	Kind   Kind       `json:"kind" validate:"required,oneof=device connection text"`
	Device DeviceType `json:"device,omitempty" validate:"omitempty,oneof=router server laptop smartphone wifi"`
	Name   string     `json:"name,omitempty" validate:"max=256"`
	IP     string     `json:"ip,omitempty" validate:"omitempty,ip"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Width  float64    `json:"width,omitempty" validate:"gte=0"`
	Height float64    `json:"height,omitempty" validate:"gte=0"`
	Source string     `json:"source,omitempty"`
	Target string     `json:"target,omitempty"`
	Text   string     `json:"text,omitempty" validate:"max=4096"`
	Style  *Style     `json:"style,omitempty"`
}

// IsDevice reports whether e is a device.
func (e Element) IsDevice() bool { return e.Kind == KindDevice }

// IsConnection reports whether e is a connection.
func (e Element) IsConnection() bool { return e.Kind == KindConnection }

// Touches reports whether connection e has id as one of its endpoints.
func (e Element) Touches(id string) bool {
	return e.IsConnection() && (e.Source == id || e.Target == id)
}

// Contains reports whether the point (x, y) lies inside the element's box.
// Connections have no box and never contain a point.
func (e Element) Contains(x, y float64) bool {
	if e.IsConnection() {
		return false
	}
	return x >= e.X && x <= e.X+e.Width && y >= e.Y && y <= e.Y+e.Height
}

// Center returns the midpoint of the element's box.
func (e Element) Center() (float64, float64) {
	return e.X + e.Width/2, e.Y + e.Height/2
}

// Label returns the text shown for the element: its name, its text, or its
// device type, in that order of preference.
func (e Element) Label() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.Text != "":
		return e.Text
	case e.Device != "":
		return string(e.Device)
	}
	return e.ID
}

// Clone returns a copy of e that shares no pointers with it.
func (e Element) Clone() Element {
	if e.Style != nil {
		s := *e.Style
		e.Style = &s
	}
	return e
}

// EffectiveStyle returns the element style with defaults filled in.
func (e Element) EffectiveStyle() Style {
	s := DefaultStyle(e)
	if e.Style == nil {
		return s
	}
	if e.Style.Fill != "" {
		s.Fill = e.Style.Fill
	}
	if e.Style.Stroke != "" {
		s.Stroke = e.Style.Stroke
	}
	if e.Style.StrokeWidth > 0 {
		s.StrokeWidth = e.Style.StrokeWidth
	}
	if e.Style.Dash != "" {
		s.Dash = e.Style.Dash
	}
	return s
}

// devicePalette holds fill and stroke per device type.
var devicePalette = map[DeviceType][2]string{
	DeviceRouter:     {"#eff6ff", "#bfdbfe"},
	DeviceServer:     {"#fff7ed", "#fed7aa"},
	DeviceLaptop:     {"#faf5ff", "#e9d5ff"},
	DeviceSmartphone: {"#f0fdf4", "#bbf7d0"},
	DeviceWifi:       {"#ecfeff", "#a5f3fc"},
}

// DefaultStyle returns the style an element gets when it has none.
func DefaultStyle(e Element) Style {
	switch e.Kind {
	case KindDevice:
		c, ok := devicePalette[e.Device]
		if !ok {
			c = [2]string{"#ffffff", "#d1d5db"}
		}
		return Style{Fill: c[0], Stroke: c[1], StrokeWidth: DefaultStrokeWidth, Dash: DashSolid}
	case KindConnection:
		return Style{Stroke: "#2196f3", StrokeWidth: DefaultStrokeWidth, Dash: DashSolid}
	default:
		return Style{Stroke: "#111827", StrokeWidth: 0, Dash: DashSolid}
	}
}

// NewDevice returns a device element of type t at (x, y) with the default
// size. The ID is left empty; [Page.Add] assigns one.
func NewDevice(t DeviceType, x, y float64) Element {
	return Element{Kind: KindDevice, Device: t, X: x, Y: y, Width: DefaultWidth, Height: DefaultHeight}
}

// NewConnection returns a connection element from source to target.
func NewConnection(source, target string) Element {
	return Element{Kind: KindConnection, Source: source, Target: target}
}

// NewText returns a text element at (x, y).
func NewText(text string, x, y float64) Element {
	return Element{Kind: KindText, Text: text, X: x, Y: y, Width: DefaultTextWidth, Height: DefaultTextHeight}
}
