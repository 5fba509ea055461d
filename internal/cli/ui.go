package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	tileio "github.com/matzehuels/imtiler/pkg/io"
)

// Terminal palette. The viewer assigns colorGreen, colorCyan, colorRed,
// colorYellow and colorBlue to categories in display order.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the viewer's source line.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCount       = lipgloss.NewStyle().Foreground(colorCyan)
	stylePath        = lipgloss.NewStyle().Bold(true)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

// statusKind selects the icon and colouring of a status line.
type statusKind int

const (
	statusSuccess statusKind = iota
	statusError
	statusWarning
	statusInfo
)

var statusIcons = map[statusKind]struct {
	icon  string
	style lipgloss.Style
}{
	statusSuccess: {"✓", lipgloss.NewStyle().Foreground(colorGreen)},
	statusError:   {"✗", lipgloss.NewStyle().Foreground(colorRed)},
	statusWarning: {"!", lipgloss.NewStyle().Foreground(colorYellow)},
	statusInfo:    {"›", lipgloss.NewStyle().Foreground(colorGray)},
}

func printStatus(kind statusKind, format string, args ...any) {
	s := statusIcons[kind]
	msg := fmt.Sprintf(format, args...)
	if kind == statusWarning {
		msg = s.style.Render(msg)
	}
	fmt.Println(s.style.Render(s.icon) + " " + msg)
}

func printSuccess(format string, args ...any) { printStatus(statusSuccess, format, args...) }
func printError(format string, args ...any)   { printStatus(statusError, format, args...) }
func printWarning(format string, args ...any) { printStatus(statusWarning, format, args...) }
func printInfo(format string, args ...any)    { printStatus(statusInfo, format, args...) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + stylePath.Render(path))
}

// printResult prints one line per category with its tile count and score
// summary, then the grid shape and whether the result came from the cache.
func printResult(doc *tileio.Result, cached bool) {
	for _, name := range doc.Names() {
		line := fmt.Sprintf("%-14s %s", name, styleCount.Render(fmt.Sprintf("%d tiles", len(doc.Categories[name]))))
		if mean, std, ok := doc.ScoreStats(name); ok {
			line += StyleDim.Render(fmt.Sprintf(" · score %.2f ± %.2f", mean, std))
		}
		fmt.Println("  " + line)
	}

	origin := statusIcons[statusInfo].style.Render("fresh")
	if cached {
		origin = statusIcons[statusSuccess].style.Render("cached")
	}
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf("%dx%d · dim %d · seed %d · ", doc.Rows, doc.Cols, doc.Dim, doc.Seed)) + origin)
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }
