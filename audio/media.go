package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"radetzky/player"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
)

// ErrUnsupportedFormat is returned for streams beep cannot decode
var ErrUnsupportedFormat = errors.New("unsupported stream format")

var (
	errMediaClosed = errors.New("media closed")
	errSuperseded  = errors.New("playback superseded")
)

// decoder turns an HTTP body into a streamer
type decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoderFor picks a decoder from the response content type, falling back to the URL suffix
func decoderFor(contentType, url string) (decoder, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch strings.ToLower(mediaType) {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3":
		return mp3.Decode, nil
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return vorbis.Decode, nil
	case "", "application/octet-stream":
		lower := strings.ToLower(url)
		switch {
		case strings.HasSuffix(lower, ".mp3"):
			return mp3.Decode, nil
		case strings.HasSuffix(lower, ".ogg"):
			return vorbis.Decode, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
}

// StreamMedia plays an HTTP audio stream through a Graph.
// Pausing drops the connection; playing again reconnects to the live edge.
type StreamMedia struct {
	client *http.Client

	mu      sync.Mutex
	url     string
	graph   *Graph
	onEvent func(player.MediaEvent)
	volume  float64
	muted   bool
	closed  bool
	gen     uint64 // identifies the active connection
	opening context.CancelFunc

	// Active playback chain
	gain   *effects.Volume
	stream beep.StreamSeekCloser
	cancel context.CancelFunc
}

// NewStreamMedia creates an unbound media element
func NewStreamMedia() *StreamMedia {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DisableCompression:    true,
	}

	return &StreamMedia{
		client: &http.Client{Transport: transport}, // no total timeout for streaming
		volume: 1,
	}
}

func (m *StreamMedia) attach(g *Graph) {
	m.mu.Lock()
	m.graph = g
	m.mu.Unlock()
}

// OnEvent installs the lifecycle event handler
func (m *StreamMedia) OnEvent(fn func(player.MediaEvent)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

func (m *StreamMedia) emit(t player.MediaEventType, err error) {
	m.mu.Lock()
	fn := m.onEvent
	m.mu.Unlock()
	if fn != nil {
		fn(player.MediaEvent{Type: t, Err: err})
	}
}

// Load binds url and drops any active connection
func (m *StreamMedia) Load(url string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errMediaClosed
	}
	m.url = url
	m.mu.Unlock()

	m.stop()
	m.emit(player.EventLoadStart, nil)
	return nil
}

// Play connects to the bound URL, decodes it and starts output.
// A later Play, Pause, Load or Close supersedes a connection that is still opening.
func (m *StreamMedia) Play(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errMediaClosed
	}
	url, graph := m.url, m.graph
	m.mu.Unlock()

	if url == "" {
		return errors.New("no source bound")
	}
	if graph == nil {
		return errors.New("no audio graph attached")
	}

	m.stop()

	// The connection outlives ctx; ctx only bounds the connect phase
	streamCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return errMediaClosed
	}
	m.gen++
	attempt := m.gen
	m.opening = cancel
	m.mu.Unlock()

	m.emit(player.EventLoadStart, nil)

	stopAbort := context.AfterFunc(ctx, cancel)
	stream, format, err := m.open(streamCtx, url)
	aborted := !stopAbort()

	m.mu.Lock()
	if m.gen == attempt {
		m.opening = nil
	}
	switch {
	case m.closed:
		err = errMediaClosed
	case m.gen != attempt:
		err = errSuperseded
	case err == nil && aborted:
		err = ctx.Err()
	}
	if err != nil {
		m.mu.Unlock()
		cancel()
		if stream != nil {
			stream.Close()
		}
		return err
	}

	// Only one chain may feed the output
	prev, prevCancel := m.detachLocked()
	if prev != nil {
		graph.disconnect()
	}

	var src beep.Streamer = stream
	if format.SampleRate != SampleRate {
		src = beep.Resample(4, format.SampleRate, SampleRate, src)
	}
	gain := &effects.Volume{Streamer: src, Base: 2}
	applyGain(gain, m.volume, m.muted)

	done := beep.Callback(func() {
		go m.finished(attempt)
	})
	if err := graph.connect(beep.Seq(gain, done)); err != nil {
		m.mu.Unlock()
		release(prev, prevCancel)
		cancel()
		stream.Close()
		return err
	}
	m.gain, m.stream, m.cancel = gain, stream, cancel
	m.mu.Unlock()

	release(prev, prevCancel)

	m.emit(player.EventCanPlay, nil)
	m.emit(player.EventPlaying, nil)
	return nil
}

// open performs the request and selects a decoder
func (m *StreamMedia) open(ctx context.Context, url string) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Icy-MetaData", "0")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	decode, err := decoderFor(resp.Header.Get("Content-Type"), url)
	if err != nil {
		resp.Body.Close()
		return nil, beep.Format{}, err
	}

	stream, format, err := decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("decode stream: %w", err)
	}
	return stream, format, nil
}

// finished runs when the decoder ran dry
func (m *StreamMedia) finished(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.stream == nil {
		// Stopped on purpose
		m.mu.Unlock()
		return
	}
	err := m.stream.Err()
	m.mu.Unlock()

	m.stop()
	if err != nil {
		m.emit(player.EventError, err)
		return
	}
	m.emit(player.EventEnded, nil)
}

// Pause drops the connection
func (m *StreamMedia) Pause() {
	if m.stop() {
		m.emit(player.EventPaused, nil)
	}
}

// stop tears down the active chain, aborts a connection still opening and
// reports whether a chain existed
func (m *StreamMedia) stop() bool {
	m.mu.Lock()
	m.gen++
	stream, cancel := m.detachLocked()
	opening, graph := m.opening, m.graph
	m.opening = nil
	m.mu.Unlock()

	if opening != nil {
		opening()
	}
	if stream == nil {
		return false
	}
	if graph != nil {
		graph.disconnect()
	}
	release(stream, cancel)
	return true
}

// detachLocked forgets the active chain and hands back what must be released
func (m *StreamMedia) detachLocked() (beep.StreamSeekCloser, context.CancelFunc) {
	stream, cancel := m.stream, m.cancel
	m.gain, m.stream, m.cancel = nil, nil, nil
	return stream, cancel
}

func release(stream beep.StreamSeekCloser, cancel context.CancelFunc) {
	if stream == nil {
		return
	}
	cancel()
	stream.Close()
}

// SetVolume sets the linear gain in [0,1]
func (m *StreamMedia) SetVolume(v float64) {
	m.mu.Lock()
	m.volume = math.Max(0, math.Min(1, v))
	m.applyLocked()
	m.mu.Unlock()
}

// SetMuted silences output without touching the gain
func (m *StreamMedia) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.applyLocked()
	m.mu.Unlock()
}

func (m *StreamMedia) applyLocked() {
	gain, graph := m.gain, m.graph
	if gain == nil {
		return
	}
	volume, muted := m.volume, m.muted
	if graph == nil {
		applyGain(gain, volume, muted)
		return
	}
	graph.withOutputLock(func() {
		applyGain(gain, volume, muted)
	})
}

// applyGain maps a linear gain onto the base-2 exponent effects.Volume expects
func applyGain(g *effects.Volume, volume float64, muted bool) {
	g.Silent = muted || volume <= 0
	if volume > 0 {
		g.Volume = math.Log2(volume)
	}
}

// Close stops playback; the element cannot be used afterwards
func (m *StreamMedia) Close() error {
	m.stop()

	m.mu.Lock()
	m.closed = true
	m.onEvent = nil
	m.mu.Unlock()
	return nil
}
