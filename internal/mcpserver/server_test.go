package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/editor"
)

func newTestServer() (*Server, *editor.Editor) {
	ed := editor.New()
	return New(ed, log.NewWithOptions(io.Discard, log.Options{})), ed
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestSelectTool(t *testing.T) {
	s, ed := newTestServer()
	ctx := context.Background()

	res, err := s.handleSelectTool(ctx, call(map[string]any{"tool": "wifi"}))
	if err != nil || res.IsError {
		t.Fatalf("select wifi: %v %+v", err, res)
	}
	if ed.State().Tool.ID != editor.ToolWifi {
		t.Errorf("active = %q", ed.State().Tool.ID)
	}

	res, err = s.handleSelectTool(ctx, call(map[string]any{"tool": "sever"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), `"server"`) {
		t.Errorf("expected a suggestion, got %q", resultText(t, res))
	}
}

func TestAddConnectRemove(t *testing.T) {
	s, ed := newTestServer()
	ctx := context.Background()

	add := func(device string, x float64) diagram.Element {
		t.Helper()
		res, err := s.handleAddDevice(ctx, call(map[string]any{"device": device, "x": x, "y": 20.0, "name": device + "-1"}))
		if err != nil || res.IsError {
			t.Fatalf("add %s: %v %s", device, err, resultText(t, res))
		}
		var el diagram.Element
		if err := json.Unmarshal([]byte(resultText(t, res)), &el); err != nil {
			t.Fatal(err)
		}
		return el
	}
	r := add("router", 10)
	sv := add("server", 200)

	res, err := s.handleConnect(ctx, call(map[string]any{"source": r.ID, "target": sv.ID}))
	if err != nil || res.IsError {
		t.Fatalf("connect: %v %s", err, resultText(t, res))
	}
	if got := ed.Document().Stats(); got.Devices != 2 || got.Connections != 1 {
		t.Fatalf("stats = %+v", got)
	}

	res, err = s.handleRemove(ctx, call(map[string]any{"id": r.ID}))
	if err != nil || res.IsError {
		t.Fatalf("remove: %v %s", err, resultText(t, res))
	}
	if got := ed.Document().Stats(); got.Devices != 1 || got.Connections != 0 {
		t.Errorf("after remove stats = %+v", got)
	}
}

func TestAddDeviceErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing device", map[string]any{"x": 1.0, "y": 1.0}},
		{"unknown device", map[string]any{"device": "printer", "x": 1.0, "y": 1.0}},
		{"missing x", map[string]any{"device": "router", "y": 1.0}},
		{"string y", map[string]any{"device": "router", "x": 1.0, "y": "top"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ed := newTestServer()
			res, err := s.handleAddDevice(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Error("expected an error result")
			}
			if ed.Document().Stats().Devices != 0 {
				t.Error("no device should be added")
			}
		})
	}
}

func TestImportAndExport(t *testing.T) {
	s, ed := newTestServer()
	ctx := context.Background()
	doc := `{"version": "1.0", "type": "drawio", "pages": [{"id": "p1", "name": "Lab", "elements": [
		{"id": "w1", "kind": "device", "device": "wifi", "x": 0, "y": 0, "width": 80, "height": 60}]}]}`

	res, err := s.handleImport(ctx, call(map[string]any{"content": doc, "name": "lab.json"}))
	if err != nil || res.IsError {
		t.Fatalf("import: %v %s", err, resultText(t, res))
	}
	if ed.Document().Pages[0].Name != "Lab" {
		t.Errorf("page = %q", ed.Document().Pages[0].Name)
	}

	res, err = s.handleExport(ctx, call(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(resultText(t, res), "w1") {
		t.Error("plain export should be the default document")
	}

	res, err = s.handleExport(ctx, call(map[string]any{"live": true}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), `"w1"`) {
		t.Error("live export should contain the imported device")
	}

	res, err = s.handleImport(ctx, call(map[string]any{"content": `{"version":`}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("malformed import should fail")
	}
}

func TestListTools(t *testing.T) {
	s, _ := newTestServer()
	res, err := s.handleListTools(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Tools  []editor.Tool `json:"tools"`
		Active string        `json:"active"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Tools) != len(editor.Tools()) || got.Active != "select" {
		t.Errorf("got %+v", got)
	}
}

func TestMoveElement(t *testing.T) {
	s, ed := newTestServer()
	ctx := context.Background()
	el, err := ed.AddElement(diagram.NewDevice(diagram.DeviceRouter, 10, 10))
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.handleMove(ctx, call(map[string]any{"id": el.ID, "x": 240.0, "y": 120.0}))
	if err != nil || res.IsError {
		t.Fatalf("move: %v %s", err, resultText(t, res))
	}
	var moved diagram.Element
	if err := json.Unmarshal([]byte(resultText(t, res)), &moved); err != nil {
		t.Fatal(err)
	}
	if moved.X != 240 || moved.Y != 120 {
		t.Errorf("moved to (%v, %v)", moved.X, moved.Y)
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing id", map[string]any{"x": 1.0, "y": 1.0}},
		{"unknown id", map[string]any{"id": "nope", "x": 1.0, "y": 1.0}},
		{"missing y", map[string]any{"id": el.ID, "x": 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleMove(ctx, call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Error("expected an error result")
			}
		})
	}
}

func TestPagesAndDevices(t *testing.T) {
	s, ed := newTestServer()
	ctx := context.Background()
	first := ed.State().ActivePage
	if _, err := ed.AddElement(diagram.NewDevice(diagram.DeviceServer, 0, 0)); err != nil {
		t.Fatal(err)
	}

	res, err := s.handleAddPage(ctx, call(map[string]any{"name": "Lab"}))
	if err != nil || res.IsError {
		t.Fatalf("add page: %v %s", err, resultText(t, res))
	}
	var page diagram.Page
	if err := json.Unmarshal([]byte(resultText(t, res)), &page); err != nil {
		t.Fatal(err)
	}
	if ed.State().ActivePage != page.ID {
		t.Errorf("active = %q, want %q", ed.State().ActivePage, page.ID)
	}

	devices := func() int {
		t.Helper()
		res, err := s.handleListDevices(ctx, call(nil))
		if err != nil {
			t.Fatal(err)
		}
		var got struct {
			Devices []diagram.Element `json:"devices"`
		}
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatal(err)
		}
		return len(got.Devices)
	}
	if n := devices(); n != 0 {
		t.Errorf("new page devices = %d, want 0", n)
	}

	res, err = s.handleSelectPage(ctx, call(map[string]any{"page": first}))
	if err != nil || res.IsError {
		t.Fatalf("select page: %v %s", err, resultText(t, res))
	}
	if n := devices(); n != 1 {
		t.Errorf("first page devices = %d, want 1", n)
	}

	for _, args := range []map[string]any{{"page": "nope"}, {}} {
		res, err := s.handleSelectPage(ctx, call(args))
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError {
			t.Errorf("select %v should fail", args)
		}
	}
}
