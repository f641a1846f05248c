package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/editor"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
)

// Toolbar styles
var (
	toolActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).
			Border(lipgloss.RoundedBorder()).BorderForeground(colorCyan).Padding(0, 1)
	toolCursorStyle = lipgloss.NewStyle().Foreground(colorWhite).
			Border(lipgloss.RoundedBorder()).BorderForeground(colorGray).Padding(0, 1)
	toolNormalStyle = lipgloss.NewStyle().Foreground(colorGray).
			Border(lipgloss.HiddenBorder()).Padding(0, 1)
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// toolsCommand creates the tools command.
func (c *CLI) toolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the toolbar tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(toolsTable(editor.Tools()))
			return nil
		},
	}
}

func toolsTable(tools []editor.Tool) string {
	rows := make([][]string, len(tools))
	for i, t := range tools {
		device := "-"
		if t.Places() {
			device = string(t.Device)
		}
		rows[i] = []string{string(t.ID), t.Label, t.Name, t.Icon, device}
	}
	return renderTable([]string{"ID", "Label", "Name", "Icon", "Places"}, rows)
}

// toolbarCommand creates the interactive toolbar command.
func (c *CLI) toolbarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toolbar",
		Short: "Pick tools and export from an interactive toolbar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.newEditor()
			if err != nil {
				return err
			}
			m := NewToolbarModel(cmd.Context(), ed)
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if tm, ok := final.(ToolbarModel); ok {
				printInfo("Active tool: %s", StyleHighlight.Render(string(tm.editor.State().Tool.ID)))
			}
			return nil
		},
	}
}

// =============================================================================
// ToolbarModel - Interactive toolbar
// =============================================================================

// ToolbarModel is the bubbletea model for the editor toolbar. Clicking a
// tool (enter) makes it active; the export button writes the default
// document.
type ToolbarModel struct {
	ctx    context.Context
	editor *editor.Editor
	tools  []editor.Tool
	Cursor int
	Status string

	// exportTo writes the exported document; tests replace it.
	exportTo func(data []byte) (string, error)
}

// NewToolbarModel creates a toolbar over ed with the cursor on the active
// tool.
func NewToolbarModel(ctx context.Context, ed *editor.Editor) ToolbarModel {
	m := ToolbarModel{
		ctx:      ctx,
		editor:   ed,
		tools:    editor.Tools(),
		exportTo: writeExportFile,
	}
	m.cursorToActive()
	return m
}

func (m *ToolbarModel) cursorToActive() {
	active := m.editor.State().Tool.ID
	for i, t := range m.tools {
		if t.ID == active {
			m.Cursor = i
		}
	}
}

func writeExportFile(data []byte) (string, error) {
	if err := os.WriteFile(pkgio.ExportFilename, data, 0o644); err != nil {
		return "", err
	}
	return pkgio.ExportFilename, nil
}

func (m ToolbarModel) Init() tea.Cmd {
	return nil
}

func (m ToolbarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc":
		if m.editor.State().ImportDialogOpen {
			m.editor.CloseImportDialog()
			m.Status = "import dialog closed"
			break
		}
		return m, tea.Quit
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "right", "l":
		if m.Cursor < len(m.tools)-1 {
			m.Cursor++
		}
	case "enter", " ":
		t, err := m.editor.SelectTool(string(m.tools[m.Cursor].ID))
		if err != nil {
			m.Status = errors.UserMessage(err)
			break
		}
		m.Status = "selected " + t.Name
	case "e":
		m.Status = m.export()
	case "i":
		m.editor.OpenImportDialog()
		m.Status = "import dialog open (run netdraw import <file>, esc to close)"
	case "n":
		m.editor.Reset()
		m.cursorToActive()
		m.Status = "new document"
	}
	return m, nil
}

func (m ToolbarModel) export() string {
	var buf bytes.Buffer
	if err := m.editor.Export(m.ctx, &buf); err != nil {
		return "export failed: " + errors.UserMessage(err)
	}
	path, err := m.exportTo(buf.Bytes())
	if err != nil {
		return "export failed: " + err.Error()
	}
	return "exported " + path
}

func (m ToolbarModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("netdraw"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ move  ⏎ select  e export  i import  n new  q quit"))
	b.WriteString("\n")

	active := m.editor.State().Tool.ID
	buttons := make([]string, len(m.tools))
	for i, t := range m.tools {
		style := toolNormalStyle
		switch {
		case t.ID == active:
			style = toolActiveStyle
		case i == m.Cursor:
			style = toolCursorStyle
		}
		label := t.Label
		if i == m.Cursor {
			label = "▸ " + label
		}
		buttons[i] = style.Render(label)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	b.WriteString("\n")

	if m.Status != "" {
		b.WriteString(listDimStyle.Render("  " + m.Status))
		b.WriteString("\n")
	}
	return b.String()
}
