package editor

import (
	"testing"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

func TestAddAndRemovePage(t *testing.T) {
	e := New()
	p, err := e.AddPage("Floor 2")
	if err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if e.State().ActivePage != p.ID {
		t.Errorf("active page = %s, want the new page %s", e.State().ActivePage, p.ID)
	}

	mustSelect(t, e, ToolRouter)
	mustPlace(t, e, 50, 50)
	if got := len(e.Document().Page(p.ID).Elements); got != 1 {
		t.Errorf("new page has %d elements, want 1", got)
	}

	if err := e.RemovePage(p.ID); err != nil {
		t.Fatalf("RemovePage: %v", err)
	}
	if e.State().ActivePage != diagram.DefaultPageID {
		t.Errorf("active page = %s after removal, want %s", e.State().ActivePage, diagram.DefaultPageID)
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Document().Page(p.ID) == nil {
		t.Error("undo should restore the removed page")
	}
}

func TestPageErrors(t *testing.T) {
	e := New()
	tests := []struct {
		name string
		run  func() error
		code errors.Code
	}{
		{"empty name", func() error { _, err := e.AddPage(""); return err }, errors.ErrCodeInvalidInput},
		{"last page", func() error { return e.RemovePage(diagram.DefaultPageID) }, errors.ErrCodeConflict},
		{"missing page", func() error { return e.RemovePage("nope") }, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
	if e.State().CanUndo {
		t.Error("failed page edits should not be recorded")
	}
}

func TestElementWithConnections(t *testing.T) {
	e := New()
	a, _ := e.AddElement(diagram.NewDevice(diagram.DeviceRouter, 0, 0))
	b, _ := e.AddElement(diagram.NewDevice(diagram.DeviceServer, 200, 0))
	c, _ := e.AddElement(diagram.NewDevice(diagram.DeviceLaptop, 400, 0))
	ab, _ := e.Connect(a.ID, b.ID, nil)
	if _, err := e.Connect(b.ID, c.ID, nil); err != nil {
		t.Fatal(err)
	}

	el, conns, err := e.Element(a.ID)
	if err != nil {
		t.Fatalf("Element: %v", err)
	}
	if el.ID != a.ID || len(conns) != 1 || conns[0].ID != ab.ID {
		t.Errorf("Element(a) = %s with %v", el.ID, conns)
	}
	if _, conns, _ := e.Element(b.ID); len(conns) != 2 {
		t.Errorf("b has %d connections, want 2", len(conns))
	}
	if _, _, err := e.Element("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Element(nope) = %v, want NOT_FOUND", err)
	}

	if got := len(e.Devices()); got != 3 {
		t.Errorf("Devices() = %d, want 3", got)
	}
}
