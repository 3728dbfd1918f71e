package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/mjibson/go-dsp/fft"
)

// Analyser defaults, chosen to behave like a Web Audio AnalyserNode
const (
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Analyser taps the signal on its way to the speaker and turns the most recent
// fftSize samples into byte magnitudes per frequency bin.
type Analyser struct {
	fftSize   int
	smoothing float64
	minDB     float64
	maxDB     float64

	mu   sync.Mutex
	ring []float64
	pos  int

	// Reused across snapshots
	window []float64
	frame  []float64
	smooth []float64
}

// NewAnalyser creates an analyser for a power-of-two fftSize
func NewAnalyser(fftSize int) *Analyser {
	a := &Analyser{
		fftSize:   fftSize,
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDecibels,
		maxDB:     DefaultMaxDecibels,
		ring:      make([]float64, fftSize),
		window:    make([]float64, fftSize),
		frame:     make([]float64, fftSize),
		smooth:    make([]float64, fftSize/2),
	}

	// Blackman window
	n := float64(fftSize)
	for i := range a.window {
		x := float64(i) / n
		a.window[i] = 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	}
	return a
}

// FrequencyBinCount returns half the transform size
func (a *Analyser) FrequencyBinCount() int {
	return a.fftSize / 2
}

// record stores the mono mix of frames, oldest first
func (a *Analyser) record(frames [][2]float64) {
	a.mu.Lock()
	for _, f := range frames {
		a.ring[a.pos] = (f[0] + f[1]) / 2
		a.pos = (a.pos + 1) % a.fftSize
	}
	a.mu.Unlock()
}

// ByteFrequencyData writes the current spectrum into dst scaled to [0,255]
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Unroll the ring in chronological order and window it
	for i := range a.frame {
		a.frame[i] = a.ring[(a.pos+i)%a.fftSize] * a.window[i]
	}

	spectrum := fft.FFTReal(a.frame)
	bins := min(len(dst), len(a.smooth))
	scale := 255 / (a.maxDB - a.minDB)

	for k := range a.smooth {
		mag := cmplx.Abs(spectrum[k]) / float64(a.fftSize)
		a.smooth[k] = a.smoothing*a.smooth[k] + (1-a.smoothing)*mag
		if k >= bins {
			continue
		}

		db := a.minDB
		if a.smooth[k] > 0 {
			db = 20 * math.Log10(a.smooth[k])
		}
		v := (db - a.minDB) * scale
		dst[k] = byte(math.Max(0, math.Min(255, v)))
	}
}

// Tap wraps s so every sample passing through is recorded
func (a *Analyser) Tap(s beep.Streamer) beep.Streamer {
	return &tap{s: s, a: a}
}

// tap is a pass-through streamer feeding the analyser with a mono mix
type tap struct {
	s beep.Streamer
	a *Analyser
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.a.record(samples[:n])
	return n, ok
}

func (t *tap) Err() error {
	return t.s.Err()
}
