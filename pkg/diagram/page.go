package diagram

import (
	"github.com/google/uuid"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// Element returns a pointer to the element with the given ID, or nil.
// The pointer is valid until the next mutation of the page.
func (p *Page) Element(id string) *Element {
	if i := p.index(id); i >= 0 {
		return &p.Elements[i]
	}
	return nil
}

func (p *Page) index(id string) int {
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Devices returns the device elements in page order.
func (p *Page) Devices() []Element {
	return p.filter(KindDevice)
}

// Connections returns the connection elements in page order.
func (p *Page) Connections() []Element {
	return p.filter(KindConnection)
}

func (p *Page) filter(k Kind) []Element {
	var out []Element
	for _, e := range p.Elements {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// ConnectionsOf returns the connections that have id as an endpoint.
func (p *Page) ConnectionsOf(id string) []Element {
	var out []Element
	for _, e := range p.Elements {
		if e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// ElementAt returns the topmost device or text element containing (x, y).
// Later elements are drawn above earlier ones.
func (p *Page) ElementAt(x, y float64) *Element {
	for i := len(p.Elements) - 1; i >= 0; i-- {
		if p.Elements[i].Contains(x, y) {
			return &p.Elements[i]
		}
	}
	return nil
}

// Add appends e to the page and returns the stored copy. An empty ID is
// replaced by a generated one. Add rejects elements that would break the
// page invariants.
func (p *Page) Add(e Element) (Element, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if p.index(e.ID) >= 0 {
		return Element{}, errors.New(errors.ErrCodeConflict, "element %q already exists on page %q", e.ID, p.ID)
	}
	if err := p.checkElement(e); err != nil {
		return Element{}, err
	}
	p.Elements = append(p.Elements, e.Clone())
	return e, nil
}

// checkElement applies the per-kind rules to a single element.
func (p *Page) checkElement(e Element) error {
	ve := &errors.ValidationError{}
	addStructIssues(ve, "", e)
	checkKindFields(ve, "", e)
	if e.IsConnection() {
		checkEndpoints(ve, "", e, func(id string) *Element { return p.Element(id) })
	}
	if err := ve.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidElement, err, "invalid %s element", e.Kind)
	}
	return nil
}

// Remove deletes the element with the given ID. Removing a device also
// removes every connection touching it. Remove returns the IDs of all
// removed elements, the requested one first.
func (p *Page) Remove(id string) ([]string, error) {
	i := p.index(id)
	if i < 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "element %q not found on page %q", id, p.ID)
	}
	removed := []string{id}
	kept := p.Elements[:0:0]
	for _, e := range p.Elements {
		switch {
		case e.ID == id:
		case e.Touches(id):
			removed = append(removed, e.ID)
		default:
			kept = append(kept, e)
		}
	}
	p.Elements = kept
	return removed, nil
}

// Move sets the position of a device or text element.
func (p *Page) Move(id string, x, y float64) error {
	e := p.Element(id)
	if e == nil {
		return errors.New(errors.ErrCodeNotFound, "element %q not found on page %q", id, p.ID)
	}
	if e.IsConnection() {
		return errors.New(errors.ErrCodeInvalidElement, "connection %q has no position", id)
	}
	e.X, e.Y = x, y
	return nil
}

// Patch carries property panel edits. Nil fields are left unchanged.
type Patch struct {
	Name   *string     `json:"name,omitempty"`
	IP     *string     `json:"ip,omitempty"`
	Device *DeviceType `json:"device,omitempty"`
	Text   *string     `json:"text,omitempty"`
	Width  *float64    `json:"width,omitempty"`
	Height *float64    `json:"height,omitempty"`
	Style  *Style      `json:"style,omitempty"`
}

// Update applies patch to the element with the given ID. The update is
// all-or-nothing: on error the element is unchanged.
func (p *Page) Update(id string, patch Patch) (Element, error) {
	cur := p.Element(id)
	if cur == nil {
		return Element{}, errors.New(errors.ErrCodeNotFound, "element %q not found on page %q", id, p.ID)
	}
	next := cur.Clone()
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.IP != nil {
		next.IP = *patch.IP
	}
	if patch.Device != nil {
		next.Device = *patch.Device
	}
	if patch.Text != nil {
		next.Text = *patch.Text
	}
	if patch.Width != nil {
		next.Width = *patch.Width
	}
	if patch.Height != nil {
		next.Height = *patch.Height
	}
	if patch.Style != nil {
		s := *patch.Style
		next.Style = &s
	}
	if err := p.checkElement(next); err != nil {
		return Element{}, err
	}
	*cur = next
	return next, nil
}

// checkKindFields records per-kind field rules that struct tags cannot
// express. prefix is prepended to issue paths.
func checkKindFields(ve *errors.ValidationError, prefix string, e Element) {
	switch e.Kind {
	case KindDevice:
		if e.Device == "" {
			ve.Add(prefix+"device", "is required for device elements")
		}
		if e.Width <= 0 || e.Height <= 0 {
			ve.Add(prefix+"width", "device size must be positive")
		}
		if e.Source != "" || e.Target != "" {
			ve.Add(prefix+"source", "only connections have endpoints")
		}
	case KindConnection:
		if e.Source == "" {
			ve.Add(prefix+"source", "is required for connections")
		}
		if e.Target == "" {
			ve.Add(prefix+"target", "is required for connections")
		}
		if e.Device != "" || e.IP != "" {
			ve.Add(prefix+"device", "connections cannot carry device fields")
		}
	case KindText:
		if e.Width <= 0 || e.Height <= 0 {
			ve.Add(prefix+"width", "text size must be positive")
		}
		if e.Device != "" || e.IP != "" {
			ve.Add(prefix+"device", "text elements cannot carry device fields")
		}
		if e.Source != "" || e.Target != "" {
			ve.Add(prefix+"source", "only connections have endpoints")
		}
	}
}

// checkEndpoints records endpoint issues for connection e. lookup resolves
// an element ID on the same page.
func checkEndpoints(ve *errors.ValidationError, prefix string, e Element, lookup func(string) *Element) {
	if e.Source != "" && e.Source == e.Target {
		ve.Add(prefix+"target", "connection cannot link %q to itself", e.Source)
		return
	}
	for _, end := range []struct{ field, id string }{{"source", e.Source}, {"target", e.Target}} {
		if end.id == "" {
			continue
		}
		ref := lookup(end.id)
		switch {
		case ref == nil:
			ve.Add(prefix+end.field, "references unknown element %q", end.id)
		case ref.Kind != KindDevice:
			ve.Add(prefix+end.field, "element %q is a %s, not a device", end.id, ref.Kind)
		}
	}
}
