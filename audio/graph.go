package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"radetzky/player"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

// SampleRate is the output device rate; streams are resampled to it
const SampleRate = beep.SampleRate(44100)

// SpeakerBuffer trades latency for robustness against scheduling hiccups
const SpeakerBuffer = 100 * time.Millisecond

var errGraphClosed = errors.New("audio graph closed")

// Output is the device the graph renders to
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Resume() error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

// speakerOutput sends audio to the system speaker
type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Resume() error         { return speaker.Resume() }
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }

// Graph routes the media element through the analyser to the output.
// The output stays suspended until the first Resume.
type Graph struct {
	out      Output
	analyser *Analyser

	mu          sync.Mutex
	state       player.GraphState
	initialized bool
}

func newGraph(out Output, fftSize int) *Graph {
	return &Graph{
		out:      out,
		analyser: NewAnalyser(fftSize),
		state:    player.GraphSuspended,
	}
}

// State returns the graph state
func (g *Graph) State() player.GraphState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resume opens the output device on first use and resumes it afterwards
func (g *Graph) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case player.GraphClosed:
		return errGraphClosed
	case player.GraphRunning:
		return nil
	}

	if !g.initialized {
		if err := g.out.Init(SampleRate, SampleRate.N(SpeakerBuffer)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		g.initialized = true
		log.Debug().Int("rate", int(SampleRate)).Msg("Speaker initialized")
	} else if err := g.out.Resume(); err != nil {
		return fmt.Errorf("resume speaker: %w", err)
	}

	g.state = player.GraphRunning
	return nil
}

// Analyser returns the graph's analysis node
func (g *Graph) Analyser() player.Analyser {
	return g.analyser
}

// Close stops all output and releases the device
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == player.GraphClosed {
		return nil
	}
	if g.initialized {
		g.out.Clear()
		g.out.Close()
	}
	g.state = player.GraphClosed
	return nil
}

// connect plays s through the analyser. The graph must be running.
func (g *Graph) connect(s beep.Streamer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != player.GraphRunning {
		return fmt.Errorf("audio graph is %s", g.state)
	}
	g.out.Play(g.analyser.Tap(s))
	return nil
}

// disconnect removes every streamer from the output
func (g *Graph) disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized && g.state != player.GraphClosed {
		g.out.Clear()
	}
}

// withOutputLock runs fn while the output is not pulling samples
func (g *Graph) withOutputLock(fn func()) {
	g.mu.Lock()
	running := g.initialized && g.state != player.GraphClosed
	g.mu.Unlock()

	if !running {
		fn()
		return
	}
	g.out.Lock()
	fn()
	g.out.Unlock()
}
