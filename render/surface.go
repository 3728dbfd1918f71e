package render

import "image/color"

// Surface is a 2D drawing target sized to its container.
// Coordinates are in surface pixels with the origin at the top left.
type Surface interface {
	Size() (width, height int)
	Clear()
	FillCircle(cx, cy, r float64, c color.NRGBA)
	StrokeLine(x1, y1, x2, y2, width float64, from, to color.NRGBA)
	FillRect(x, y, w, h float64, c color.NRGBA)
}

// Op names a recorded drawing command
type Op string

const (
	OpClear      Op = "clear"
	OpFillCircle Op = "fillCircle"
	OpStrokeLine Op = "strokeLine"
	OpFillRect   Op = "fillRect"
)

// Command is one recorded drawing call
type Command struct {
	Op     Op
	Args   []float64
	Colors []color.NRGBA
}

// Recorder is a Surface that keeps the commands issued since the last Clear
type Recorder struct {
	Width    int
	Height   int
	Commands []Command
	Clears   int
}

// NewRecorder creates a recorder of the given size
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

func (r *Recorder) Clear() {
	r.Commands = r.Commands[:0]
	r.Clears++
	r.Commands = append(r.Commands, Command{Op: OpClear})
}

func (r *Recorder) FillCircle(cx, cy, radius float64, c color.NRGBA) {
	r.Commands = append(r.Commands, Command{Op: OpFillCircle, Args: []float64{cx, cy, radius}, Colors: []color.NRGBA{c}})
}

func (r *Recorder) StrokeLine(x1, y1, x2, y2, width float64, from, to color.NRGBA) {
	r.Commands = append(r.Commands, Command{Op: OpStrokeLine, Args: []float64{x1, y1, x2, y2, width}, Colors: []color.NRGBA{from, to}})
}

func (r *Recorder) FillRect(x, y, w, h float64, c color.NRGBA) {
	r.Commands = append(r.Commands, Command{Op: OpFillRect, Args: []float64{x, y, w, h}, Colors: []color.NRGBA{c}})
}

// Count returns how many recorded commands have op
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, cmd := range r.Commands {
		if cmd.Op == op {
			n++
		}
	}
	return n
}
