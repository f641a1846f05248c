// Package mcpserver exposes an editing session as Model Context Protocol
// tools so agents can draw network diagrams over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/netdraw/pkg/buildinfo"
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/editor"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
)

// Server is the MCP server for one editor session.
type Server struct {
	mcp    *server.MCPServer
	editor *editor.Editor
	logger *log.Logger
}

// New creates the server and registers its tools.
func New(ed *editor.Editor, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{editor: ed, logger: logger}
	s.mcp = server.NewMCPServer(
		"netdraw",
		buildinfo.Semver(),
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Debug("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_tools",
		mcp.WithDescription("List the toolbar tools and the active one"),
	), s.handleListTools)

	s.mcp.AddTool(mcp.NewTool("select_tool",
		mcp.WithDescription("Make a toolbar tool active. Only the highlighted tool changes."),
		mcp.WithString("tool", mcp.Description("Tool id: "+strings.Join(editor.ToolIDs(), ", ")), mcp.Required()),
	), s.handleSelectTool)

	s.mcp.AddTool(mcp.NewTool("export_diagram",
		mcp.WithDescription("Export a diagram. Without live=true this is the toolbar export: the default document."),
		mcp.WithBoolean("live", mcp.Description("Export the session's document instead of the default one")),
		mcp.WithString("format", mcp.Description("json (default) or xml; only used with live=true")),
	), s.handleExport)

	s.mcp.AddTool(mcp.NewTool("import_diagram",
		mcp.WithDescription("Import a diagram document (netdraw JSON or draw.io XML) into the session"),
		mcp.WithString("content", mcp.Description("Document content"), mcp.Required()),
		mcp.WithString("name", mcp.Description("File name; its extension must be .json, .drawio or .xml (optional)")),
		mcp.WithString("mode", mcp.Description("replace (default) or merge")),
		mcp.WithString("conflict", mcp.Description("Merge id conflicts: rename (default), keep or overwrite")),
	), s.handleImport)

	s.mcp.AddTool(mcp.NewTool("add_device",
		mcp.WithDescription("Add a device to the active page"),
		mcp.WithString("device", mcp.Description("Device type: router, server, laptop, smartphone, wifi"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Y position"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Display name (optional)")),
		mcp.WithString("ip", mcp.Description("IP address (optional)")),
	), s.handleAddDevice)

	s.mcp.AddTool(mcp.NewTool("connect_devices",
		mcp.WithDescription("Connect two devices on the active page"),
		mcp.WithString("source", mcp.Description("Source device ID"), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target device ID"), mcp.Required()),
	), s.handleConnect)

	s.mcp.AddTool(mcp.NewTool("remove_element",
		mcp.WithDescription("Remove an element and the connections touching it"),
		mcp.WithString("id", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemove)

	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move a device or text element on the active page"),
		mcp.WithString("id", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMove)

	s.mcp.AddTool(mcp.NewTool("list_devices",
		mcp.WithDescription("List the devices on the active page"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListDevices)

	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Add a page to the document and make it active"),
		mcp.WithString("name", mcp.Description("Page name"), mcp.Required()),
	), s.handleAddPage)

	s.mcp.AddTool(mcp.NewTool("select_page",
		mcp.WithDescription("Make a page active; later edits apply to it"),
		mcp.WithString("page", mcp.Description("Page ID"), mcp.Required()),
	), s.handleSelectPage)
}

func boolPtr(b bool) *bool { return &b }

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// errorResult reports a failed call in the tool result.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(errors.UserMessage(err))
	res.IsError = true
	return res
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func requireString(args map[string]any, key string) (string, error) {
	s := strings.TrimSpace(stringArg(args, key))
	if s == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "%s is required", key)
	}
	return s, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", key)
}

func (s *Server) handleListTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"tools":  editor.Tools(),
		"active": s.editor.State().Tool.ID,
	})
}

func (s *Server) handleSelectTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.editor.SelectTool(stringArg(req.GetArguments(), "tool"))
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("active tool: %s (%s)", t.ID, t.Label)), nil
}

func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var buf bytes.Buffer
	if live, _ := args["live"].(bool); live {
		f, err := pkgio.ParseFormat(stringArg(args, "format"))
		if err != nil {
			return errorResult(err), nil
		}
		if err := s.editor.ExportDocument(ctx, &buf, f); err != nil {
			return nil, err
		}
		return textResult(buf.String()), nil
	}
	if err := s.editor.Export(ctx, &buf); err != nil {
		return nil, err
	}
	return textResult(buf.String()), nil
}

func (s *Server) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	res, err := s.editor.Import(ctx, strings.NewReader(stringArg(args, "content")), editor.ImportOptions{
		Name:     stringArg(args, "name"),
		Mode:     diagram.Mode(stringArg(args, "mode")),
		Conflict: diagram.ConflictPolicy(stringArg(args, "conflict")),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleAddDevice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	device, err := requireString(args, "device")
	if err != nil {
		return errorResult(err), nil
	}
	if !diagram.IsDeviceType(device) {
		return errorResult(errors.New(errors.ErrCodeInvalidElement, "unknown device type %q", device)), nil
	}
	x, err := numberArg(args, "x")
	if err != nil {
		return errorResult(err), nil
	}
	y, err := numberArg(args, "y")
	if err != nil {
		return errorResult(err), nil
	}

	el := diagram.NewDevice(diagram.DeviceType(device), x, y)
	el.Name = stringArg(args, "name")
	el.IP = stringArg(args, "ip")
	added, err := s.editor.AddElement(el)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(added)
}

func (s *Server) handleConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	src, err := requireString(args, "source")
	if err != nil {
		return errorResult(err), nil
	}
	dst, err := requireString(args, "target")
	if err != nil {
		return errorResult(err), nil
	}
	c, err := s.editor.Connect(src, dst, nil)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(c)
}

func (s *Server) handleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "id")
	if err != nil {
		return errorResult(err), nil
	}
	removed, err := s.editor.Remove(id)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult("removed: " + strings.Join(removed, ", ")), nil
}

func (s *Server) handleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "id")
	if err != nil {
		return errorResult(err), nil
	}
	x, err := numberArg(args, "x")
	if err != nil {
		return errorResult(err), nil
	}
	y, err := numberArg(args, "y")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.editor.Move(id, x, y); err != nil {
		return errorResult(err), nil
	}
	el, _, err := s.editor.Element(id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(el)
}

func (s *Server) handleListDevices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"page":    s.editor.State().ActivePage,
		"devices": s.editor.Devices(),
	})
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "name")
	if err != nil {
		return errorResult(err), nil
	}
	p, err := s.editor.AddPage(name)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p)
}

func (s *Server) handleSelectPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "page")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.editor.SetActivePage(id); err != nil {
		return errorResult(err), nil
	}
	return textResult("active page: " + id), nil
}
