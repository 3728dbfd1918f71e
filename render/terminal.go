package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells hold a 2x4 dot matrix
const (
	dotsX = 2
	dotsY = 4
)

// brailleBits maps a dot position inside a cell to its bit in U+2800..U+28FF
var brailleBits = [dotsY][dotsX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// TerminalCanvas is a Surface backed by a grid of braille cells.
// Each cell keeps the colour of the last dot drawn into it.
type TerminalCanvas struct {
	cols, rows int
	dots       []uint8
	colors     []color.NRGBA
}

// NewTerminalCanvas creates a canvas of cols x rows terminal cells
func NewTerminalCanvas(cols, rows int) *TerminalCanvas {
	c := &TerminalCanvas{}
	c.Resize(cols, rows)
	return c
}

// Resize re-measures the canvas; contents are discarded
func (c *TerminalCanvas) Resize(cols, rows int) {
	c.cols, c.rows = max(0, cols), max(0, rows)
	c.dots = make([]uint8, c.cols*c.rows)
	c.colors = make([]color.NRGBA, c.cols*c.rows)
}

// Cells returns the canvas size in terminal cells
func (c *TerminalCanvas) Cells() (cols, rows int) {
	return c.cols, c.rows
}

// Size returns the canvas size in dots
func (c *TerminalCanvas) Size() (int, int) {
	return c.cols * dotsX, c.rows * dotsY
}

func (c *TerminalCanvas) Clear() {
	clear(c.dots)
	clear(c.colors)
}

func (c *TerminalCanvas) set(x, y int, col color.NRGBA) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	cell := (y/dotsY)*c.cols + x/dotsX
	c.dots[cell] |= brailleBits[y%dotsY][x%dotsX]
	c.colors[cell] = col
}

func (c *TerminalCanvas) FillCircle(cx, cy, r float64, col color.NRGBA) {
	if r <= 0 {
		return
	}
	r2 := r * r
	for y := int(math.Floor(cy - r)); y <= int(math.Ceil(cy+r)); y++ {
		for x := int(math.Floor(cx - r)); x <= int(math.Ceil(cx+r)); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r2 {
				c.set(x, y, col)
			}
		}
	}
}

func (c *TerminalCanvas) StrokeLine(x1, y1, x2, y2, _ float64, from, to color.NRGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(x2-x1), math.Abs(y2-y1))))
	if steps == 0 {
		c.set(int(x1), int(y1), from)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.set(int(math.Round(x1+(x2-x1)*t)), int(math.Round(y1+(y2-y1)*t)), lerp(from, to, t))
	}
}

func (c *TerminalCanvas) FillRect(x, y, w, h float64, col color.NRGBA) {
	for yy := int(math.Round(y)); yy < int(math.Round(y+h)); yy++ {
		for xx := int(math.Round(x)); xx < int(math.Round(x+w)); xx++ {
			c.set(xx, yy, col)
		}
	}
}

// String renders the canvas as coloured braille lines
func (c *TerminalCanvas) String() string {
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		// Batch runs of equal colour into a single styled span
		var run strings.Builder
		var runColor string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(run.String()))
			}
			run.Reset()
		}

		for col := 0; col < c.cols; col++ {
			i := row*c.cols + col
			hex := ""
			r := ' '
			if c.dots[i] != 0 {
				r = rune(0x2800 + int(c.dots[i]))
				hex = toHex(c.colors[i])
			}
			if hex != runColor {
				flush()
				runColor = hex
			}
			run.WriteRune(r)
		}
		flush()
	}
	return sb.String()
}

// toHex flattens a translucent colour onto a black background
func toHex(c color.NRGBA) string {
	// Keep faint fills visible on a terminal
	a := math.Max(float64(c.A)/255, 0.35)
	return fmt.Sprintf("#%02x%02x%02x", uint8(float64(c.R)*a), uint8(float64(c.G)*a), uint8(float64(c.B)*a))
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Fallback is the static visual shown when the surface cannot be drawn on
func Fallback(width int) string {
	art := "(  (  ( ♪ )  )  )"
	pad := (width - lipgloss.Width(art)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + art
}
