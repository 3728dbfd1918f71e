package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultVolume is the volume a new player starts with
const DefaultVolume = 80

// Messages shown to the listener
const (
	MsgInitFailed = "Could not initialize audio context"
	MsgPlayFailed = "Unable to play the stream. Please try again."
	MsgLoadFailed = "Error loading the audio stream. Please try again later."
)

var (
	ErrNotInitialized = errors.New("player not initialized")
	ErrClosed         = errors.New("player closed")
)

// Status is the playback status
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusLoading:
		return "LOADING"
	case StatusPlaying:
		return "PLAYING"
	case StatusPaused:
		return "PAUSED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// State is an immutable snapshot of the player.
// Status == StatusError always comes with a non-empty ErrorMessage.
type State struct {
	Status       Status
	Muted        bool
	Volume       int
	ErrorMessage string
}

// IsPlaying reports whether audio is flowing
func (s State) IsPlaying() bool {
	return s.Status == StatusPlaying
}

// IsLoading reports whether a play request is in flight
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// Option configures a Player
type Option func(*Player)

// WithVolume sets the initial volume, clamped to [0,100]
func WithVolume(v int) Option {
	return func(p *Player) {
		p.state.Volume = clampVolume(v)
	}
}

// Player owns one media element and the audio-processing graph built around it,
// and exposes playback controls plus an observable State.
type Player struct {
	platform Platform

	mu     sync.Mutex
	media  Media
	graph  Graph
	url    string
	state  State
	gen    uint64 // bumped by every play/pause request; stale play results are discarded
	closed bool

	// Play request still waiting on the media; repeated play requests join it
	inflight *playCall

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates a player in the Idle state
func New(platform Platform, opts ...Option) *Player {
	p := &Player{
		platform: platform,
		state: State{
			Status: StatusIdle,
			Volume: DefaultVolume,
		},
		subs: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize binds the player to streamURL. The media element and the graph are
// built on the first call only; later calls just rebind the URL.
func (p *Player) Initialize(streamURL string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}

	var graphErr error
	stopped := false
	if p.media != nil && (p.state.Status == StatusPlaying || p.state.Status == StatusLoading) {
		// Rebinding drops the active connection
		p.gen++
		p.state.Status = StatusPaused
		stopped = true
	}
	if p.media == nil {
		media := p.platform.NewMedia()
		media.OnEvent(p.handleMediaEvent)
		p.media = media

		graph, err := p.platform.NewGraph(media)
		if err != nil {
			graphErr = err
			p.setErrorLocked(MsgInitFailed)
		} else {
			p.graph = graph
		}
	}
	p.url = streamURL
	media := p.media
	volume, muted := p.state.Volume, p.state.Muted
	snap := p.state
	p.mu.Unlock()

	if graphErr != nil {
		log.Error().Err(graphErr).Msg("Error initializing audio graph")
		p.notify(snap)
	}
	if stopped {
		p.notify(snap)
	}

	media.SetVolume(float64(volume) / 100)
	media.SetMuted(muted)
	if err := media.Load(streamURL); err != nil {
		return fmt.Errorf("load %s: %w", streamURL, err)
	}
	log.Debug().Str("url", streamURL).Msg("Audio source set")
	return nil
}

// URL returns the bound stream URL
func (p *Player) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// State returns a snapshot of the current state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsPlaying reports whether the player is in the Playing state
func (p *Player) IsPlaying() bool {
	return p.State().IsPlaying()
}

// Analyser returns the graph's analyser, or nil when no graph exists
func (p *Player) Analyser() Analyser {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.graph == nil {
		return nil
	}
	return p.graph.Analyser()
}

// Play switches to Loading, resumes a suspended graph, then starts the media.
// It blocks until playback started or failed. A Play issued while another one
// is still loading waits for that one instead of starting the media twice.
func (p *Player) Play(ctx context.Context) error {
	req, joined, err := p.beginPlay()
	if err != nil {
		return err
	}
	if joined {
		return req.call.wait(ctx)
	}
	return p.completePlay(ctx, req)
}

// PlayAsync applies the Loading transition before returning and finishes the
// request in the background. The channel receives the outcome once.
func (p *Player) PlayAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	req, joined, err := p.beginPlay()
	if err != nil {
		done <- err
		return done
	}

	go func() {
		if joined {
			done <- req.call.wait(ctx)
			return
		}
		done <- p.completePlay(ctx, req)
	}()
	return done
}

// playCall is the outcome of one media start, shared by every request that joined it
type playCall struct {
	gen  uint64
	done chan struct{}
	err  error
}

func (c *playCall) finish(err error) {
	c.err = err
	close(c.done)
}

func (c *playCall) wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// playRequest captures what an in-flight play works on
type playRequest struct {
	gen   uint64
	media Media
	graph Graph
	call  *playCall
}

// beginPlay applies the Loading transition. joined is true when a play with the
// same generation is already waiting on the media; req.call then belongs to it.
func (p *Player) beginPlay() (req playRequest, joined bool, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return playRequest{}, false, ErrClosed
	}
	if p.media == nil {
		p.mu.Unlock()
		return playRequest{}, false, ErrNotInitialized
	}
	if c := p.inflight; c != nil && c.gen == p.gen {
		p.mu.Unlock()
		return playRequest{call: c}, true, nil
	}

	p.gen++
	p.state.Status = StatusLoading
	p.state.ErrorMessage = ""
	call := &playCall{gen: p.gen, done: make(chan struct{})}
	p.inflight = call
	req = playRequest{gen: p.gen, media: p.media, graph: p.graph, call: call}
	snap := p.state
	p.mu.Unlock()

	p.notify(snap)
	return req, false, nil
}

func (p *Player) completePlay(ctx context.Context, req playRequest) (err error) {
	defer func() {
		req.call.finish(err)
	}()

	err = startPlayback(ctx, req)

	p.mu.Lock()
	if p.inflight == req.call {
		p.inflight = nil
	}
	if p.gen != req.gen || p.closed {
		// A later pause or play owns the status now
		status := p.state.Status
		closed := p.closed
		p.mu.Unlock()

		if err == nil && (status == StatusPaused || closed) {
			req.media.Pause()
		}
		return err
	}

	if err != nil {
		p.setErrorLocked(MsgPlayFailed)
	} else {
		p.state.Status = StatusPlaying
	}
	snap := p.state
	p.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Error playing audio")
	}
	p.notify(snap)
	return err
}

func startPlayback(ctx context.Context, req playRequest) error {
	// Output may be suspended until a user gesture, resume it first
	if req.graph != nil && req.graph.State() == GraphSuspended {
		if err := req.graph.Resume(ctx); err != nil {
			return fmt.Errorf("resume audio graph: %w", err)
		}
	}

	if err := req.media.Play(ctx); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	return nil
}

// Pause stops playback and switches to Paused. It also wins over an in-flight Play.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.closed || p.media == nil {
		p.mu.Unlock()
		return
	}

	p.gen++
	p.state.Status = StatusPaused
	p.state.ErrorMessage = ""
	media := p.media
	snap := p.state
	p.mu.Unlock()

	media.Pause()
	p.notify(snap)
}

// TogglePlayPause pauses when playing and plays otherwise
func (p *Player) TogglePlayPause(ctx context.Context) error {
	if p.IsPlaying() {
		p.Pause()
		return nil
	}
	return p.Play(ctx)
}

// TogglePlayPauseAsync is TogglePlayPause with PlayAsync semantics for the play branch
func (p *Player) TogglePlayPauseAsync(ctx context.Context) <-chan error {
	if p.IsPlaying() {
		p.Pause()
		done := make(chan error, 1)
		done <- nil
		return done
	}
	return p.PlayAsync(ctx)
}

// ToggleMute flips the mute flag; the stored volume is left alone
func (p *Player) ToggleMute() {
	p.mu.Lock()
	p.state.Muted = !p.state.Muted
	media := p.media
	snap := p.state
	p.mu.Unlock()

	if media != nil {
		media.SetMuted(snap.Muted)
	}
	p.notify(snap)
}

// SetVolume clamps v to [0,100] and applies it. Changing the volume also unmutes.
func (p *Player) SetVolume(v int) {
	v = clampVolume(v)

	p.mu.Lock()
	p.state.Volume = v
	wasMuted := p.state.Muted
	p.state.Muted = false
	media := p.media
	snap := p.state
	p.mu.Unlock()

	if media != nil {
		media.SetVolume(float64(v) / 100)
		if wasMuted {
			media.SetMuted(false)
		}
	}
	p.notify(snap)
}

// DismissError clears a displayed error, returning to Paused so play can be retried
func (p *Player) DismissError() {
	p.mu.Lock()
	if p.state.Status != StatusError {
		p.mu.Unlock()
		return
	}
	p.state.Status = StatusPaused
	p.state.ErrorMessage = ""
	snap := p.state
	p.mu.Unlock()

	p.notify(snap)
}

// handleMediaEvent maps media lifecycle events onto the state machine
func (p *Player) handleMediaEvent(ev MediaEvent) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	prev := p.state.Status
	switch ev.Type {
	case EventLoadStart:
		// Rebuffering while playing
		if prev == StatusPlaying {
			p.state.Status = StatusLoading
		}
	case EventPlaying:
		if prev == StatusLoading {
			p.state.Status = StatusPlaying
		}
	case EventPaused, EventEnded:
		if prev == StatusPlaying || prev == StatusLoading {
			p.state.Status = StatusPaused
		}
	case EventError:
		p.setErrorLocked(MsgLoadFailed)
	}

	changed := p.state.Status != prev || ev.Type == EventError
	snap := p.state
	p.mu.Unlock()

	switch ev.Type {
	case EventError:
		log.Error().Err(ev.Err).Msg("Audio error")
	case EventEnded:
		log.Warn().Msg("Audio stream ended")
	default:
		log.Debug().Str("event", ev.Type.String()).Str("status", snap.Status.String()).Msg("Media event")
	}

	if changed {
		p.notify(snap)
	}
}

func (p *Player) setErrorLocked(msg string) {
	p.state.Status = StatusError
	p.state.ErrorMessage = msg
}

// Subscribe registers fn to receive every state change; call the returned func to stop
func (p *Player) Subscribe(fn func(State)) func() {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

func (p *Player) notify(s State) {
	p.subMu.Lock()
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Close releases the graph and the media element. It is safe to call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.gen++
	media, graph := p.media, p.graph
	p.media, p.graph = nil, nil
	p.mu.Unlock()

	var errs []error
	if media != nil {
		media.Pause()
		if err := media.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close media: %w", err))
		}
	}
	if graph != nil && graph.State() != GraphClosed {
		if err := graph.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio graph: %w", err))
		}
	}

	p.subMu.Lock()
	clear(p.subs)
	p.subMu.Unlock()

	return errors.Join(errs...)
}

func clampVolume(v int) int {
	return max(0, min(100, v))
}
