package editor

import (
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// AddPage appends an empty page and makes it the active page.
func (e *Editor) AddPage(name string) (*diagram.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.doc.Clone()
	p, err := e.doc.AddPage(name)
	if err != nil {
		return nil, err
	}
	e.history.push(snap)
	e.page = p.ID
	e.pending, e.selection = "", ""
	return p.Clone(), nil
}

// RemovePage deletes a page and its elements. Removing the active page
// activates the first remaining one.
func (e *Editor) RemovePage(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.doc.Clone()
	if err := e.doc.RemovePage(id); err != nil {
		return err
	}
	e.history.push(snap)
	if e.page == id {
		e.page = e.doc.FirstPage().ID
		e.pending, e.selection = "", ""
	}
	return nil
}

// Element returns an element of the active page together with the
// connections attached to it.
func (e *Editor) Element(id string) (diagram.Element, []diagram.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.activePage()
	el := p.Element(id)
	if el == nil {
		return diagram.Element{}, nil, errors.New(errors.ErrCodeNotFound, "element %q not found on page %q", id, p.ID)
	}
	return el.Clone(), cloneAll(p.ConnectionsOf(id)), nil
}

// Devices returns the devices on the active page.
func (e *Editor) Devices() []diagram.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAll(e.activePage().Devices())
}

func cloneAll(els []diagram.Element) []diagram.Element {
	out := make([]diagram.Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}
