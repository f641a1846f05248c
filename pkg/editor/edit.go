package editor

import (
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// PlaceAction says what a [Editor.Place] call did.
type PlaceAction string

// Place outcomes.
const (
	ActionNone       PlaceAction = "none"
	ActionSelected   PlaceAction = "selected"
	ActionAdded      PlaceAction = "added"
	ActionPending    PlaceAction = "pending"
	ActionConnected  PlaceAction = "connected"
	ActionDeselected PlaceAction = "deselected"
)

// PlaceResult reports the effect of a canvas click.
type PlaceResult struct {
	Action  PlaceAction      `json:"action"`
	Element *diagram.Element `json:"element,omitempty"`
}

// Place applies the active tool at canvas point (x, y) on the active page:
//
//   - select picks the topmost element under the point, or clears the
//     selection when there is none
//   - a device tool adds a device of that type centered on the point
//   - text adds a text element at the point
//   - connection needs two clicks on devices: the first one is held as
//     pending source, the second adds the connection
func (e *Editor) Place(x, y float64) (PlaceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := LookupTool(string(e.tool))
	if err != nil {
		return PlaceResult{}, err
	}
	p := e.activePage()

	switch {
	case t.ID == ToolSelect:
		hit := p.ElementAt(x, y)
		if hit == nil {
			e.selection = ""
			return PlaceResult{Action: ActionDeselected}, nil
		}
		e.selection = hit.ID
		el := hit.Clone()
		return PlaceResult{Action: ActionSelected, Element: &el}, nil

	case t.Places():
		el := diagram.NewDevice(t.Device, x-diagram.DefaultWidth/2, y-diagram.DefaultHeight/2)
		return e.add(p, el)

	case t.ID == ToolText:
		return e.add(p, diagram.NewText("Text", x, y))

	case t.ID == ToolConnection:
		hit := p.ElementAt(x, y)
		if hit == nil || !hit.IsDevice() {
			return PlaceResult{Action: ActionNone}, nil
		}
		if e.pending == "" || e.pending == hit.ID {
			e.pending = hit.ID
			el := hit.Clone()
			return PlaceResult{Action: ActionPending, Element: &el}, nil
		}
		src := e.pending
		e.pending = ""
		res, err := e.add(p, diagram.NewConnection(src, hit.ID))
		if err != nil {
			return res, err
		}
		res.Action = ActionConnected
		return res, nil
	}
	return PlaceResult{Action: ActionNone}, nil
}

// add snapshots, adds el to p, and selects it. Callers hold e.mu.
func (e *Editor) add(p *diagram.Page, el diagram.Element) (PlaceResult, error) {
	snap := e.doc.Clone()
	added, err := p.Add(el)
	if err != nil {
		return PlaceResult{}, err
	}
	e.history.push(snap)
	e.selection = added.ID
	return PlaceResult{Action: ActionAdded, Element: &added}, nil
}

func (e *Editor) activePage() *diagram.Page {
	if p := e.doc.Page(e.page); p != nil {
		return p
	}
	p := e.doc.FirstPage()
	e.page = p.ID
	return p
}

// AddElement adds el to the active page. An empty ID is generated.
func (e *Editor) AddElement(el diagram.Element) (diagram.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.add(e.activePage(), el)
	if err != nil {
		return diagram.Element{}, err
	}
	return *res.Element, nil
}

// Connect links two devices on the active page.
func (e *Editor) Connect(source, target string, style *diagram.Style) (diagram.Element, error) {
	c := diagram.NewConnection(source, target)
	c.Style = style
	return e.AddElement(c)
}

// Remove deletes an element and the connections touching it, returning the
// removed IDs.
func (e *Editor) Remove(id string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.doc.Clone()
	removed, err := e.activePage().Remove(id)
	if err != nil {
		return nil, err
	}
	e.history.push(snap)
	for _, r := range removed {
		if e.selection == r {
			e.selection = ""
		}
		if e.pending == r {
			e.pending = ""
		}
	}
	return removed, nil
}

// Move repositions a device or text element.
func (e *Editor) Move(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.doc.Clone()
	if err := e.activePage().Move(id, x, y); err != nil {
		return err
	}
	e.history.push(snap)
	return nil
}

// Update applies property panel edits to an element.
func (e *Editor) Update(id string, patch diagram.Patch) (diagram.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.doc.Clone()
	el, err := e.activePage().Update(id, patch)
	if err != nil {
		return diagram.Element{}, err
	}
	e.history.push(snap)
	return el, nil
}

// Selected returns the selected element, if any.
func (e *Editor) Selected() (diagram.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selection == "" {
		return diagram.Element{}, false
	}
	el := e.activePage().Element(e.selection)
	if el == nil {
		return diagram.Element{}, false
	}
	return el.Clone(), true
}

// Undo restores the document before the last mutation.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev, ok := e.history.stepBack(e.doc)
	if !ok {
		return errors.New(errors.ErrCodeConflict, "nothing to undo")
	}
	e.restore(prev)
	return nil
}

// Redo reapplies the last undone mutation.
func (e *Editor) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, ok := e.history.stepForward(e.doc)
	if !ok {
		return errors.New(errors.ErrCodeConflict, "nothing to redo")
	}
	e.restore(next)
	return nil
}

func (e *Editor) restore(d *diagram.Document) {
	e.doc = d
	p := e.activePage()
	if e.selection != "" && p.Element(e.selection) == nil {
		e.selection = ""
	}
	if e.pending != "" && p.Element(e.pending) == nil {
		e.pending = ""
	}
}
