package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// ANSI 256 palette shared by status lines, tables and the toolbar.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)

	styleValue       = lipgloss.NewStyle().Foreground(colorWhite)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarnText    = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// mark is the colored symbol in front of a status line.
type mark struct {
	symbol string
	style  lipgloss.Style
}

var (
	markOK   = mark{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	markFail = mark{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	markWarn = mark{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	markInfo = mark{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (m mark) println(text string) {
	fmt.Println(m.style.Render(m.symbol) + " " + text)
}

func printSuccess(format string, args ...any) { markOK.println(fmt.Sprintf(format, args...)) }
func printError(format string, args ...any) { markFail.println(fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any) { markInfo.println(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	markWarn.println(styleWarnText.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints "→ path" for a file a command wrote.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + styleValue.Render(value))
}

// printNextStep suggests a follow-up command after a blank line.
func printNextStep(description, cmd string) {
	fmt.Println()
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printStats prints a summary such as "3 devices · 2 connections · fresh".
// Pages are only shown for multi-page documents.
func printStats(st diagram.Stats, cached bool) {
	var parts []string
	if st.Pages > 1 {
		parts = append(parts, StyleDim.Render(count(st.Pages, "page")))
	}
	parts = append(parts, StyleDim.Render(count(st.Devices, "device")))
	if st.Connections > 0 {
		parts = append(parts, StyleDim.Render(count(st.Connections, "connection")))
	}
	if st.Texts > 0 {
		parts = append(parts, StyleDim.Render(count(st.Texts, "text")))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printIssues lists validation issues, one per line, under an error line.
func printIssues(err error) {
	for _, is := range errors.Issues(err) {
		if is.Path == "" {
			printDetail("%s", is.Message)
		} else {
			printDetail("%s: %s", is.Path, is.Message)
		}
	}
}

// renderTable draws rows under headers. The first column is highlighted and
// the columns listed in dim are muted.
func renderTable(headers []string, rows [][]string, dim ...int) string {
	muted := map[int]bool{}
	for _, c := range dim {
		muted[c] = true
	}
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return header
			case col == 0:
				return StyleHighlight
			case muted[col]:
				return StyleDim
			}
			return styleValue
		}).
		Render()
}
