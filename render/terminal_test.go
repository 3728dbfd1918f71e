package render

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"radetzky/spectrum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func TestTerminalCanvasSize(t *testing.T) {
	c := NewTerminalCanvas(10, 5)

	w, h := c.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)

	cols, rows := c.Cells()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 5, rows)

	c.Resize(-1, 3)
	w, h = c.Size()
	assert.Equal(t, 0, w)
	assert.Equal(t, 12, h)
}

func TestTerminalCanvasBlank(t *testing.T) {
	c := NewTerminalCanvas(4, 2)
	assert.Equal(t, "    \n    ", c.String())
}

func TestTerminalCanvasFillRect(t *testing.T) {
	c := NewTerminalCanvas(3, 2)
	c.FillRect(0, 0, 6, 8, white)

	assert.Equal(t, 6, strings.Count(c.String(), "⣿"))

	c.Clear()
	assert.Equal(t, "   \n   ", c.String())
}

func TestTerminalCanvasDotBits(t *testing.T) {
	c := NewTerminalCanvas(1, 1)

	// Top left dot only
	c.FillRect(0, 0, 1, 1, white)
	assert.Contains(t, c.String(), "⠁")

	c.Clear()
	// Bottom right dot only
	c.FillRect(1, 3, 1, 1, white)
	assert.Contains(t, c.String(), "⢀")
}

func TestTerminalCanvasClipsOutOfBounds(t *testing.T) {
	c := NewTerminalCanvas(2, 2)

	c.FillCircle(-50, -50, 10, white)
	c.StrokeLine(-10, -10, -1, -1, 1, white, white)
	c.FillRect(100, 100, 5, 5, white)

	assert.Equal(t, "  \n  ", c.String())
}

func TestTerminalCanvasStrokeLine(t *testing.T) {
	c := NewTerminalCanvas(4, 1)
	c.StrokeLine(0, 0, 7, 0, 1, white, color.NRGBA{A: 255})

	// One dot per column along the top row of each cell
	assert.Equal(t, 4, strings.Count(c.String(), "⠉"))
}

func TestRendererOnTerminalCanvas(t *testing.T) {
	c := NewTerminalCanvas(40, 20)
	data := make([]byte, 128)
	for i := range data {
		data[i] = 180
	}

	require.NoError(t, Renderer{}.Draw(c, spectrum.Frame{Data: data, Time: time.Now()}))
	out := c.String()

	assert.Equal(t, 20, strings.Count(out, "\n")+1)
	assert.NotEqual(t, strings.TrimSpace(out), "")
}

func TestFallback(t *testing.T) {
	art := "(  (  ( ♪ )  )  )"

	assert.Equal(t, art, Fallback(0))
	assert.Equal(t, art, strings.TrimLeft(Fallback(60), " "))
	assert.Greater(t, len(Fallback(60)), len(art))
}

func TestToHexKeepsFaintColoursVisible(t *testing.T) {
	assert.Equal(t, "#ffffff", toHex(white))
	assert.Equal(t, "#595959", toHex(color.NRGBA{R: 255, G: 255, B: 255, A: 0}))
}
