package spectrum

import (
	"math"
	"time"
)

// DefaultFFTSize matches the analyser transform size used by the player
const DefaultFFTSize = 256

// Source is read once per frame for live data
type Source interface {
	ByteFrequencyData(dst []byte)
}

// Frame is one sample handed to the renderer. Data is owned by the sampler
// and only valid until the next call to Sample.
type Frame struct {
	Data    []byte
	Standby bool
	Time    time.Time
}

// Sampler produces one frequency sample per display frame, from the analyser
// while playing and from a time-driven synthetic signal otherwise.
// The host's frame clock calls Sample; one call at a time.
type Sampler struct {
	buf    []byte
	source Source
}

// NewSampler creates a sampler with a fixed buffer of bins bytes.
// A nil source always yields the standby signal.
func NewSampler(bins int, source Source) *Sampler {
	if bins <= 0 {
		bins = DefaultFFTSize / 2
	}
	return &Sampler{
		buf:    make([]byte, bins),
		source: source,
	}
}

// Bins returns the fixed sample length
func (s *Sampler) Bins() int {
	return len(s.buf)
}

// Sample fills the buffer for one frame. Without a source the standby signal is used
// even when playing.
func (s *Sampler) Sample(playing bool, now time.Time) Frame {
	if playing && s.source != nil {
		clear(s.buf)
		s.source.ByteFrequencyData(s.buf)
		return Frame{Data: s.buf, Time: now}
	}

	Standby(s.buf, now)
	return Frame{Data: s.buf, Standby: true, Time: now}
}

// Standby writes a slowly moving synthetic spectrum derived only from now
func Standby(dst []byte, now time.Time) {
	t := float64(now.UnixNano()) / float64(time.Second)
	n := len(dst)
	for i := range dst {
		x := float64(i) / float64(max(1, n-1))
		// Low bins louder, with a travelling ripple
		envelope := 1 - 0.7*x
		ripple := math.Abs(math.Sin(t + float64(i)*0.5))
		dst[i] = byte(envelope * (20 + 40*ripple))
	}
}
