package diagram

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// Document defaults.
const (
	CurrentVersion  = "1.0"
	DocumentType    = "drawio"
	DefaultPageID   = "page1"
	DefaultPageName = "Network Diagram"
)

// Document is the top-level exported and imported structure.
type Document struct {
	Version string  `json:"version" validate:"required"`
	Type    string  `json:"type" validate:"required,eq=drawio"`
	Pages   []*Page `json:"pages" validate:"required,min=1,dive,required"`
}

// Page is a named container of diagram elements.
type Page struct {
	ID       string    `json:"id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=256"`
	Elements []Element `json:"elements" validate:"dive"`
}

// MarshalJSON always emits elements as an array, never null.
func (p Page) MarshalJSON() ([]byte, error) {
	type page Page
	out := page(p)
	if out.Elements == nil {
		out.Elements = []Element{}
	}
	return json.Marshal(out)
}

// NewDocument returns the default document: one empty page named
// "Network Diagram".
func NewDocument() *Document {
	return &Document{
		Version: CurrentVersion,
		Type:    DocumentType,
		Pages: []*Page{
			{ID: DefaultPageID, Name: DefaultPageName, Elements: []Element{}},
		},
	}
}

// Page returns the page with the given ID, or nil.
func (d *Document) Page(id string) *Page {
	for _, p := range d.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FirstPage returns the first page, or nil for a document without pages.
func (d *Document) FirstPage() *Page {
	if len(d.Pages) == 0 {
		return nil
	}
	return d.Pages[0]
}

// AddPage appends an empty page with a generated ID.
func (d *Document) AddPage(name string) (*Page, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "page name cannot be empty")
	}
	p := &Page{ID: uuid.NewString(), Name: name, Elements: []Element{}}
	d.Pages = append(d.Pages, p)
	return p, nil
}

// RemovePage deletes the page with the given ID. The last page cannot be
// removed.
func (d *Document) RemovePage(id string) error {
	for i, p := range d.Pages {
		if p.ID != id {
			continue
		}
		if len(d.Pages) == 1 {
			return errors.New(errors.ErrCodeConflict, "cannot remove the only page")
		}
		d.Pages = append(d.Pages[:i], d.Pages[i+1:]...)
		return nil
	}
	return errors.New(errors.ErrCodeNotFound, "page %q not found", id)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Version: d.Version, Type: d.Type, Pages: make([]*Page, len(d.Pages))}
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}

// Stats counts the elements of d by kind.
func (d *Document) Stats() Stats {
	s := Stats{Pages: len(d.Pages)}
	for _, p := range d.Pages {
		for _, e := range p.Elements {
			switch e.Kind {
			case KindDevice:
				s.Devices++
			case KindConnection:
				s.Connections++
			case KindText:
				s.Texts++
			}
		}
	}
	return s
}

// Stats summarizes document contents.
type Stats struct {
	Pages       int `json:"pages"`
	Devices     int `json:"devices"`
	Connections int `json:"connections"`
	Texts       int `json:"texts"`
}

// Clone returns a deep copy of p.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := &Page{ID: p.ID, Name: p.Name, Elements: make([]Element, len(p.Elements))}
	for i, e := range p.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}
