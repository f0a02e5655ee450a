// Package display owns the primary screen.
//
// The draw primitives are a capability the reconciler calls but does
// not implement: Screen is satisfied by the ANSI terminal screen in
// this package and by the recording fake in the tests. The reconciler
// decides *what* to paint from elapsed time, connectivity, and the
// held reading; a Screen decides how a cell of colored text appears.
package display

// Color is a named text color. The terminal screen maps these onto
// its palette; other screens are free to interpret them.
type Color int

const (
	ColorWhite Color = iota
	ColorCyan
	ColorGreen
	ColorRed
	ColorOrange
)

// Screen is the draw-primitive surface for the primary display.
// Implementations are not required to be concurrency-safe: all
// drawing happens from the control loop.
type Screen interface {
	// Clear erases the whole screen.
	Clear()
	// SetCursor moves the draw position to column x, row y.
	SetCursor(x, y int)
	// SetTextColor selects the color for subsequent Print calls.
	SetTextColor(c Color)
	// SetTextSize selects a text size; 1 is normal. Screens without
	// scalable glyphs may render larger sizes as emphasis.
	SetTextSize(size int)
	// Print draws text at the current position.
	Print(text string)
	// DrawRight draws text with its right edge at column x, row y.
	DrawRight(text string, x, y int)
	// Width returns the screen width in columns.
	Width() int
}
