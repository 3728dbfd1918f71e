package audio

import (
	"fmt"

	"radetzky/player"
)

// Platform builds beep-backed media elements and graphs
type Platform struct {
	fftSize int
	out     Output
}

// NewPlatform creates a platform whose analysers use fftSize-point transforms
func NewPlatform(fftSize int) *Platform {
	return &Platform{fftSize: fftSize, out: speakerOutput{}}
}

// NewMedia creates a media element
func (p *Platform) NewMedia() player.Media {
	return NewStreamMedia()
}

// NewGraph wraps media in a source node routed through an analyser to the speaker
func (p *Platform) NewGraph(media player.Media) (player.Graph, error) {
	sm, ok := media.(*StreamMedia)
	if !ok {
		return nil, fmt.Errorf("media %T cannot be connected to a beep graph", media)
	}
	if p.fftSize < 32 || p.fftSize&(p.fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size %d is not a power of two >= 32", p.fftSize)
	}

	g := newGraph(p.out, p.fftSize)
	sm.attach(g)
	return g, nil
}
