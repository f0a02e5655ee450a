package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// TermScreen renders the display onto an ANSI terminal: cursor
// addressing via escape sequences, colors via lipgloss. Text sizes
// above 1 render as bold — a terminal has no scalable glyphs.
type TermScreen struct {
	w      io.Writer
	width  int
	color  Color
	size   int
	styles map[Color]lipgloss.Style
}

// NewTermScreen creates a terminal screen width columns wide.
func NewTermScreen(w io.Writer, width int) *TermScreen {
	if width <= 0 {
		width = 40
	}
	return &TermScreen{
		w:     w,
		width: width,
		size:  1,
		styles: map[Color]lipgloss.Style{
			ColorWhite:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
			ColorCyan:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
			ColorGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			ColorRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
			ColorOrange: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		},
	}
}

func (t *TermScreen) Clear() {
	fmt.Fprint(t.w, "\x1b[2J\x1b[H")
}

func (t *TermScreen) SetCursor(x, y int) {
	// ANSI rows and columns are 1-based.
	fmt.Fprintf(t.w, "\x1b[%d;%dH", y+1, x+1)
}

func (t *TermScreen) SetTextColor(c Color) {
	t.color = c
}

func (t *TermScreen) SetTextSize(size int) {
	if size < 1 {
		size = 1
	}
	t.size = size
}

func (t *TermScreen) Print(text string) {
	style := t.styles[t.color]
	if t.size > 1 {
		style = style.Bold(true)
	}
	fmt.Fprint(t.w, style.Render(text))
}

func (t *TermScreen) DrawRight(text string, x, y int) {
	col := x - len(text)
	if col < 0 {
		col = 0
	}
	t.SetCursor(col, y)
	t.Print(text)
}

func (t *TermScreen) Width() int {
	return t.width
}
