package cli

import (
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// viewCommand creates the view command, a terminal preview of a result.
func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view RESULT [MASK]",
		Short: "Preview tile placements in the terminal",
		Long: `Draw the tiles of a result document over its mask in the terminal.

Keys:
  tab, →   next category
  ←        previous category
  q        quit`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := tileio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			var mask *grid.Mask
			if len(args) == 2 {
				if mask, err = imageio.LoadMask(args[1]); err != nil {
					return err
				}
				if mask.Rows != doc.Rows || mask.Cols != doc.Cols {
					return fmt.Errorf("mask is %dx%d, result was placed on %dx%d", mask.Rows, mask.Cols, doc.Rows, doc.Cols)
				}
			}
			_, err = tea.NewProgram(newViewModel(doc, mask), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// Viewer styles, one color per category in display order.
var (
	viewMaskStyle   = lipgloss.NewStyle().Foreground(colorDim)
	viewHeaderStyle = lipgloss.NewStyle().Foreground(colorGray)
	viewCatStyles   = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(colorGreen),
		lipgloss.NewStyle().Foreground(colorCyan),
		lipgloss.NewStyle().Foreground(colorRed),
		lipgloss.NewStyle().Foreground(colorYellow),
		lipgloss.NewStyle().Foreground(colorBlue),
	}
)

// =============================================================================
// viewModel - Placement preview
// =============================================================================

type viewModel struct {
	doc    *tileio.Result
	cats   tiler.Categories
	names  []tiler.Category
	thumb  image.Image
	mask   *grid.Mask
	filter int // 0 shows all categories, i > 0 shows names[i-1]
	width  int
	height int
}

func newViewModel(doc *tileio.Result, mask *grid.Mask) viewModel {
	cats := doc.TileCategories()
	m := viewModel{
		doc:    doc,
		cats:   cats,
		names:  cats.Names(),
		mask:   mask,
		width:  80,
		height: 20,
	}
	return m.withThumb()
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.filter = (m.filter + 1) % (len(m.names) + 1)
		case "shift+tab", "left", "h":
			m.filter = (m.filter + len(m.names)) % (len(m.names) + 1)
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 10)
		m.height = max(msg.Height-4, 5)
		m = m.withThumb()
	}
	return m, nil
}

// withThumb renders the mask thumbnail for the current size. A character
// cell is twice as tall as it is wide.
func (m viewModel) withThumb() viewModel {
	if m.mask != nil {
		m.thumb = imageio.Thumbnail(imageio.MaskImage(m.mask), m.width, 2*m.height)
	}
	return m
}

// cells returns the character grid size and the pixels covered per cell.
func (m viewModel) cells() (rows, cols int, sy, sx float64) {
	scale := min(float64(m.width)/float64(m.doc.Cols), float64(2*m.height)/float64(m.doc.Rows))
	cols = max(1, int(float64(m.doc.Cols)*scale))
	rows = max(1, int(float64(m.doc.Rows)*scale)/2)
	return rows, cols, float64(m.doc.Rows) / float64(rows), float64(m.doc.Cols) / float64(cols)
}

func (m viewModel) View() string {
	if m.doc.Rows == 0 || m.doc.Cols == 0 {
		return "empty result\n"
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.doc.Source))
	b.WriteString(viewHeaderStyle.Render(fmt.Sprintf("  %dx%d · dim %d · ", m.doc.Rows, m.doc.Cols, m.doc.Dim)))
	for i, name := range m.names {
		label := fmt.Sprintf("%s %d", name, m.cats[name].Len())
		if m.filter == i+1 {
			label = "[" + label + "]"
		}
		b.WriteString(viewCatStyles[i%len(viewCatStyles)].Render(label) + " ")
	}
	b.WriteString("\n")
	b.WriteString(listHint("tab category  q quit"))
	b.WriteString("\n\n")

	rows, cols, sy, sx := m.cells()
	for r := range rows {
		for c := range cols {
			py, px := int((float64(r)+0.5)*sy), int((float64(c)+0.5)*sx)
			if i, ok := m.tileAt(py, px); ok {
				b.WriteString(viewCatStyles[i%len(viewCatStyles)].Render("█"))
				continue
			}
			if m.thumb != nil && valid(m.thumb, r, c, rows, cols) {
				b.WriteString(viewMaskStyle.Render("░"))
				continue
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// tileAt returns the display index of the last category with a tile
// covering pixel (row, col).
func (m viewModel) tileAt(row, col int) (int, bool) {
	found, idx := false, 0
	for i, name := range m.names {
		if m.filter != 0 && m.filter != i+1 {
			continue
		}
		for _, t := range m.cats[name].Tiles(m.doc.Dim) {
			if row >= t.Row && row < t.Row+t.Dim && col >= t.Col && col < t.Col+t.Dim {
				found, idx = true, i
				break
			}
		}
	}
	return idx, found
}

// valid samples the thumbnail at character cell (r, c).
func valid(thumb image.Image, r, c, rows, cols int) bool {
	b := thumb.Bounds()
	y := b.Min.Y + (2*r+1)*b.Dy()/(2*rows)
	x := b.Min.X + (2*c+1)*b.Dx()/(2*cols)
	g, _, _, _ := thumb.At(x, y).RGBA()
	return g != 0
}

func listHint(s string) string {
	return StyleDim.Render(s)
}
