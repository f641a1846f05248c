package editor

import (
	"testing"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

func mustSelect(t *testing.T, e *Editor, id ToolID) {
	t.Helper()
	if _, err := e.SelectTool(string(id)); err != nil {
		t.Fatalf("SelectTool(%s): %v", id, err)
	}
}

func mustPlace(t *testing.T, e *Editor, x, y float64) PlaceResult {
	t.Helper()
	res, err := e.Place(x, y)
	if err != nil {
		t.Fatalf("Place(%v, %v): %v", x, y, err)
	}
	return res
}

func TestPlaceDevicesAndText(t *testing.T) {
	tests := []struct {
		tool   ToolID
		kind   diagram.Kind
		device diagram.DeviceType
	}{
		{ToolRouter, diagram.KindDevice, diagram.DeviceRouter},
		{ToolServer, diagram.KindDevice, diagram.DeviceServer},
		{ToolLaptop, diagram.KindDevice, diagram.DeviceLaptop},
		{ToolSmartphone, diagram.KindDevice, diagram.DeviceSmartphone},
		{ToolWifi, diagram.KindDevice, diagram.DeviceWifi},
		{ToolText, diagram.KindText, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			e := New()
			mustSelect(t, e, tt.tool)
			res := mustPlace(t, e, 200, 100)
			if res.Action != ActionAdded || res.Element == nil {
				t.Fatalf("result = %+v", res)
			}
			if res.Element.Kind != tt.kind || res.Element.Device != tt.device {
				t.Errorf("element = %+v", res.Element)
			}
			if res.Element.ID == "" {
				t.Error("placed element should get an id")
			}
			if e.State().Selection != res.Element.ID {
				t.Error("placed element should be selected")
			}
		})
	}
}

func TestPlaceDeviceCenteredOnPoint(t *testing.T) {
	e := New()
	mustSelect(t, e, ToolRouter)
	res := mustPlace(t, e, 200, 100)
	cx, cy := res.Element.Center()
	if cx != 200 || cy != 100 {
		t.Errorf("center = (%v, %v), want (200, 100)", cx, cy)
	}
}

func TestPlaceSelect(t *testing.T) {
	e := New()
	mustSelect(t, e, ToolServer)
	placed := mustPlace(t, e, 100, 100)
	mustSelect(t, e, ToolSelect)

	res := mustPlace(t, e, 100, 100)
	if res.Action != ActionSelected || res.Element.ID != placed.Element.ID {
		t.Errorf("select hit = %+v", res)
	}
	if el, ok := e.Selected(); !ok || el.ID != placed.Element.ID {
		t.Errorf("Selected() = %+v, %v", el, ok)
	}

	res = mustPlace(t, e, 900, 900)
	if res.Action != ActionDeselected || e.State().Selection != "" {
		t.Errorf("empty click = %+v, selection %q", res, e.State().Selection)
	}
	if !e.State().CanUndo {
		t.Error("placement should be undoable")
	}
}

func TestPlaceConnection(t *testing.T) {
	e := New()
	mustSelect(t, e, ToolRouter)
	a := mustPlace(t, e, 100, 100).Element
	mustSelect(t, e, ToolLaptop)
	b := mustPlace(t, e, 400, 100).Element
	mustSelect(t, e, ToolText)
	mustPlace(t, e, 100, 400)

	mustSelect(t, e, ToolConnection)

	if res := mustPlace(t, e, 105, 405); res.Action != ActionNone {
		t.Errorf("click on text = %+v, want none", res)
	}
	if res := mustPlace(t, e, 100, 100); res.Action != ActionPending {
		t.Fatalf("first click = %+v", res)
	}
	if e.State().PendingSource != a.ID {
		t.Errorf("pending = %q, want %q", e.State().PendingSource, a.ID)
	}
	res := mustPlace(t, e, 400, 100)
	if res.Action != ActionConnected {
		t.Fatalf("second click = %+v", res)
	}
	if res.Element.Source != a.ID || res.Element.Target != b.ID {
		t.Errorf("connection = %+v", res.Element)
	}
	if e.State().PendingSource != "" {
		t.Error("pending source should be cleared")
	}
}

func TestSwitchingToolDropsPendingConnection(t *testing.T) {
	e := New()
	mustSelect(t, e, ToolRouter)
	mustPlace(t, e, 100, 100)
	mustSelect(t, e, ToolConnection)
	mustPlace(t, e, 100, 100)
	mustSelect(t, e, ToolSelect)
	if e.State().PendingSource != "" {
		t.Error("pending connection should be dropped")
	}
}

func TestRemoveCascadesAndUndo(t *testing.T) {
	e := New()
	a, err := e.AddElement(diagram.NewDevice(diagram.DeviceRouter, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.AddElement(diagram.NewDevice(diagram.DeviceServer, 200, 0))
	if err != nil {
		t.Fatal(err)
	}
	c, err := e.Connect(a.ID, b.ID, &diagram.Style{Dash: diagram.DashDashed})
	if err != nil {
		t.Fatal(err)
	}

	removed, err := e.Remove(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 || removed[0] != a.ID || removed[1] != c.ID {
		t.Errorf("removed = %v", removed)
	}
	if n := len(e.Document().Pages[0].Elements); n != 1 {
		t.Errorf("elements = %d, want 1", n)
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Document().Pages[0].Elements); n != 3 {
		t.Errorf("after undo elements = %d, want 3", n)
	}
	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Document().Pages[0].Elements); n != 1 {
		t.Errorf("after redo elements = %d, want 1", n)
	}
}

func TestConnectRejectsInvalid(t *testing.T) {
	e := New()
	a, _ := e.AddElement(diagram.NewDevice(diagram.DeviceRouter, 0, 0))
	txt, _ := e.AddElement(diagram.NewText("note", 0, 100))

	if _, err := e.Connect(a.ID, a.ID, nil); !errors.Is(err, errors.ErrCodeInvalidElement) {
		t.Errorf("self loop = %v", err)
	}
	if _, err := e.Connect(a.ID, txt.ID, nil); !errors.Is(err, errors.ErrCodeInvalidElement) {
		t.Errorf("to text = %v", err)
	}
	if _, err := e.Connect(a.ID, "ghost", nil); !errors.Is(err, errors.ErrCodeInvalidElement) {
		t.Errorf("to ghost = %v", err)
	}
}

func TestUpdateAndMove(t *testing.T) {
	e := New()
	a, _ := e.AddElement(diagram.NewDevice(diagram.DeviceRouter, 0, 0))

	name, ip := "gateway", "192.168.1.1"
	got, err := e.Update(a.ID, diagram.Patch{Name: &name, IP: &ip})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != name || got.IP != ip {
		t.Errorf("updated = %+v", got)
	}

	bad := "300.1.1.1"
	if _, err := e.Update(a.ID, diagram.Patch{IP: &bad}); err == nil {
		t.Error("invalid IP should be rejected")
	}

	if err := e.Move(a.ID, 50, 60); err != nil {
		t.Fatal(err)
	}
	el := e.Document().Pages[0].Element(a.ID)
	if el.X != 50 || el.Y != 60 || el.IP != ip {
		t.Errorf("element = %+v", el)
	}
}

func TestUndoNothing(t *testing.T) {
	e := New()
	if err := e.Undo(); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("Undo() = %v", err)
	}
	if err := e.Redo(); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("Redo() = %v", err)
	}
}

func TestNewMutationDropsRedo(t *testing.T) {
	e := New()
	_, _ = e.AddElement(diagram.NewDevice(diagram.DeviceRouter, 0, 0))
	_ = e.Undo()
	if !e.State().CanRedo {
		t.Fatal("redo should be available after undo")
	}
	_, _ = e.AddElement(diagram.NewDevice(diagram.DeviceServer, 0, 0))
	if e.State().CanRedo {
		t.Error("new mutation should drop the redo branch")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	e := New(WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		if _, err := e.AddElement(diagram.NewDevice(diagram.DeviceRouter, float64(i*200), 0)); err != nil {
			t.Fatal(err)
		}
	}
	undos := 0
	for e.Undo() == nil {
		undos++
	}
	if undos != 3 {
		t.Errorf("undos = %d, want 3", undos)
	}
	if n := len(e.Document().Pages[0].Elements); n != 2 {
		t.Errorf("elements after exhausting undo = %d, want 2", n)
	}
}

func TestSetActivePage(t *testing.T) {
	d := diagram.NewDocument()
	p, err := d.AddPage("Floor 2")
	if err != nil {
		t.Fatal(err)
	}
	e := New(WithDocument(d))
	if err := e.SetActivePage(p.ID); err != nil {
		t.Fatal(err)
	}
	mustSelect(t, e, ToolWifi)
	mustPlace(t, e, 0, 0)
	if len(e.Document().Page(p.ID).Elements) != 1 {
		t.Error("placement should target the active page")
	}
	if err := e.SetActivePage("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SetActivePage(nope) = %v", err)
	}
}
