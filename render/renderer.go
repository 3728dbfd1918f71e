package render

import (
	"errors"
	"image/color"
	"math"

	"radetzky/spectrum"
)

// ErrUnsupportedSurface is returned when there is nothing to draw on
var ErrUnsupportedSurface = errors.New("unsupported drawing surface")

// ReferenceSize is the surface edge the geometry constants are designed for
const ReferenceSize = 400.0

var (
	outerGlow   = color.NRGBA{R: 142, G: 45, B: 226, A: 51}
	innerGlow   = color.NRGBA{R: 74, G: 0, B: 224, A: 38}
	rayStart    = color.NRGBA{R: 0, G: 224, B: 255, A: 178}
	rayEnd      = color.NRGBA{R: 142, G: 45, B: 226, A: 127}
	equalizerFg = color.NRGBA{R: 0, G: 224, B: 255, A: 204}
)

const (
	outerRadius    = 60.0
	innerRadius    = 50.0
	rayBaseRadius  = 70.0
	rayWidth       = 2.0
	eqBarWidth     = 4.0
	eqBarSpacing   = 2.0
	eqBarCount     = 7
	eqBottomOffset = 50.0
)

// Renderer draws frames. It keeps no state between frames; every call clears the surface first.
type Renderer struct {
	// Scale multiplies all geometry; zero derives it from the surface size
	Scale float64
}

// Draw renders one frame onto s
func (r Renderer) Draw(s Surface, f spectrum.Frame) error {
	if s == nil {
		return ErrUnsupportedSurface
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return ErrUnsupportedSurface
	}

	scale := r.Scale
	if scale <= 0 {
		scale = math.Min(float64(w), float64(h)) / ReferenceSize
	}

	s.Clear()
	cx, cy := float64(w)/2, float64(h)/2

	if f.Standby || len(f.Data) == 0 {
		drawStandby(s, cx, cy, scale, f)
		return nil
	}
	drawLive(s, cx, cy, scale, f.Data)
	return nil
}

func drawLive(s Surface, cx, cy, scale float64, data []byte) {
	s.FillCircle(cx, cy, outerRadius*scale, outerGlow)
	s.FillCircle(cx, cy, innerRadius*scale, innerGlow)

	// Radial frequency rays
	n := len(data)
	for i, v := range data {
		barHeight := float64(v) / 1.5
		angle := float64(i) * 2 * math.Pi / float64(n)
		inner := rayBaseRadius * scale
		outer := (rayBaseRadius + barHeight) * scale

		x1 := cx + inner*math.Cos(angle)
		y1 := cy + inner*math.Sin(angle)
		x2 := cx + outer*math.Cos(angle)
		y2 := cy + outer*math.Sin(angle)
		s.StrokeLine(x1, y1, x2, y2, rayWidth*scale, rayStart, rayEnd)
	}

	step := n / (eqBarCount * 2)
	drawEqualizer(s, cx, cy, scale, func(i int) float64 {
		return math.Max(4, float64(data[step*i])/2)
	})
}

func drawStandby(s Surface, cx, cy, scale float64, f spectrum.Frame) {
	t := float64(f.Time.UnixNano()) / 1e9

	pulse := math.Sin(t)*5 + outerRadius
	s.FillCircle(cx, cy, pulse*scale, outerGlow)
	s.FillCircle(cx, cy, (pulse-10)*scale, innerGlow)

	drawEqualizer(s, cx, cy, scale, func(i int) float64 {
		return math.Abs(math.Sin(t+float64(i)*0.5))*15 + 5
	})
}

func drawEqualizer(s Surface, cx, cy, scale float64, height func(i int) float64) {
	pitch := eqBarWidth + eqBarSpacing
	startX := cx - (pitch*eqBarCount)/2*scale
	bottom := cy + eqBottomOffset*scale

	for i := 0; i < eqBarCount; i++ {
		barHeight := height(i) * scale
		s.FillRect(startX+float64(i)*pitch*scale, bottom-barHeight, eqBarWidth*scale, barHeight, equalizerFg)
	}
}
