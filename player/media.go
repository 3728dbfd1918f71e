package player

import "context"

// MediaEventType identifies a lifecycle event reported by a media element
type MediaEventType int

const (
	EventLoadStart MediaEventType = iota
	EventCanPlay
	EventPlaying
	EventPaused
	EventEnded
	EventError
)

func (t MediaEventType) String() string {
	switch t {
	case EventLoadStart:
		return "loadstart"
	case EventCanPlay:
		return "canplay"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent is delivered by a Media implementation as playback progresses
type MediaEvent struct {
	Type MediaEventType
	Err  error
}

// Media is a playable resource bound to a URL, the equivalent of an audio element.
// Implementations call the handler installed with OnEvent from any goroutine.
type Media interface {
	// Load binds the element to url and stops any current playback
	Load(url string) error

	// Play starts playback and blocks until audio is flowing or starting failed
	Play(ctx context.Context) error

	// Pause stops playback; it never fails
	Pause()

	// SetVolume sets the output gain in [0,1]
	SetVolume(v float64)

	// SetMuted silences output without touching the gain
	SetMuted(muted bool)

	// OnEvent installs the lifecycle event handler
	OnEvent(fn func(MediaEvent))

	Close() error
}

// GraphState mirrors the state of an audio-processing context
type GraphState int

const (
	GraphSuspended GraphState = iota
	GraphRunning
	GraphClosed
)

func (s GraphState) String() string {
	switch s {
	case GraphSuspended:
		return "suspended"
	case GraphRunning:
		return "running"
	case GraphClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Graph is the audio-processing graph: a source node wrapping the media element,
// connected to an analyser and to the output device.
type Graph interface {
	State() GraphState

	// Resume starts a suspended graph
	Resume(ctx context.Context) error

	// Analyser returns the graph's analysis node
	Analyser() Analyser

	Close() error
}

// Analyser exposes frequency-domain snapshots of the signal flowing through the graph
type Analyser interface {
	// FrequencyBinCount is half the transform size and fixed for the analyser's lifetime
	FrequencyBinCount() int

	// ByteFrequencyData writes min(len(dst), FrequencyBinCount()) magnitudes into dst
	ByteFrequencyData(dst []byte)
}

// Platform builds the media element and the graph around it
type Platform interface {
	NewMedia() Media
	NewGraph(media Media) (Graph, error)
}
