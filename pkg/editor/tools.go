package editor

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// ToolID identifies a toolbar tool.
type ToolID string

// Toolbar tools, in display order.
const (
	ToolSelect     ToolID = "select"
	ToolRouter     ToolID = "router"
	ToolServer     ToolID = "server"
	ToolLaptop     ToolID = "laptop"
	ToolSmartphone ToolID = "smartphone"
	ToolWifi       ToolID = "wifi"
	ToolConnection ToolID = "connection"
	ToolText       ToolID = "text"
)

// DefaultTool is selected when an editor starts.
const DefaultTool = ToolSelect

// Tool describes a toolbar button.
type Tool struct {
	ID ToolID `json:"id"`
	// Icon is the lucide icon name shown on the button.
	Icon string `json:"icon"`
	// Label is the display label of the product UI.
	Label string `json:"label"`
	// Name is the English name.
	Name string `json:"name"`
	// Device is set for tools that place a device.
	Device diagram.DeviceType `json:"device,omitempty"`
}

// Places reports whether placing with t creates a device.
func (t Tool) Places() bool { return t.Device != "" }

var tools = []Tool{
	{ID: ToolSelect, Icon: "MousePointer", Label: "Выбор", Name: "Select"},
	{ID: ToolRouter, Icon: "Router", Label: "Роутер", Name: "Router", Device: diagram.DeviceRouter},
	{ID: ToolServer, Icon: "Server", Label: "Сервер", Name: "Server", Device: diagram.DeviceServer},
	{ID: ToolLaptop, Icon: "Laptop", Label: "Компьютер", Name: "Computer", Device: diagram.DeviceLaptop},
	{ID: ToolSmartphone, Icon: "Smartphone", Label: "Устройство", Name: "Device", Device: diagram.DeviceSmartphone},
	{ID: ToolWifi, Icon: "Wifi", Label: "WiFi", Name: "WiFi", Device: diagram.DeviceWifi},
	{ID: ToolConnection, Icon: "Minus", Label: "Соединение", Name: "Connection"},
	{ID: ToolText, Icon: "Type", Label: "Текст", Name: "Text"},
}

// Tools returns the toolbar tools in display order.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// LookupTool returns the tool with the given id. Matching ignores case and
// surrounding space. Unknown ids fail with INVALID_TOOL and, when one is
// close enough, a suggestion.
func LookupTool(id string) (Tool, error) {
	key := ToolID(strings.ToLower(strings.TrimSpace(id)))
	for _, t := range tools {
		if t.ID == key {
			return t, nil
		}
	}
	if s := Suggest(string(key)); s != "" {
		return Tool{}, errors.New(errors.ErrCodeInvalidTool, "unknown tool %q (did you mean %q?)", id, s)
	}
	return Tool{}, errors.New(errors.ErrCodeInvalidTool, "unknown tool %q (available: %s)", id, strings.Join(ToolIDs(), ", "))
}

// ToolIDs returns every tool id in display order.
func ToolIDs() []string {
	ids := make([]string, len(tools))
	for i, t := range tools {
		ids[i] = string(t.ID)
	}
	return ids
}

// Suggest returns the tool id closest to s, or "" if none is within a third
// of its length.
func Suggest(s string) string {
	if s == "" {
		return ""
	}
	type cand struct {
		id   string
		dist int
	}
	var cands []cand
	for _, t := range tools {
		d := levenshtein.ComputeDistance(s, string(t.ID))
		if d <= max(1, len(t.ID)/3) {
			cands = append(cands, cand{string(t.ID), d})
		}
	}
	if len(cands) == 0 {
		return ""
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	return cands[0].id
}
