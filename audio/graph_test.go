package audio

import (
	"context"
	"sync"
	"testing"

	"radetzky/player"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput records what the graph asks of the device
type fakeOutput struct {
	mu      sync.Mutex
	inits   int
	resumes int
	clears  int
	locks   int
	closed  bool
	playing []beep.Streamer
}

func (o *fakeOutput) Init(rate beep.SampleRate, bufferSize int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
	return nil
}

func (o *fakeOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumes++
	return nil
}

func (o *fakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = append(o.playing, s)
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
	o.playing = nil
}

func (o *fakeOutput) Lock() {
	o.mu.Lock()
	o.locks++
	o.mu.Unlock()
}

func (o *fakeOutput) Unlock() {}

func (o *fakeOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func TestGraphStartsSuspended(t *testing.T) {
	g := newGraph(&fakeOutput{}, 256)
	assert.Equal(t, player.GraphSuspended, g.State())
	assert.Equal(t, 128, g.Analyser().FrequencyBinCount())
}

func TestGraphResumeInitializesOnce(t *testing.T) {
	out := &fakeOutput{}
	g := newGraph(out, 256)

	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, g.Resume(context.Background()))

	assert.Equal(t, player.GraphRunning, g.State())
	assert.Equal(t, 1, out.inits)
}

func TestGraphResumeCanceled(t *testing.T) {
	g := newGraph(&fakeOutput{}, 256)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.Resume(ctx), context.Canceled)
	assert.Equal(t, player.GraphSuspended, g.State())
}

func TestGraphConnectRequiresRunning(t *testing.T) {
	out := &fakeOutput{}
	g := newGraph(out, 256)

	assert.Error(t, g.connect(&sliceStreamer{}))
	assert.Empty(t, out.playing)

	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, g.connect(&sliceStreamer{}))
	require.Len(t, out.playing, 1)

	// The output plays through the analyser tap
	_, isTap := out.playing[0].(*tap)
	assert.True(t, isTap)

	g.disconnect()
	assert.Empty(t, out.playing)
}

func TestGraphClose(t *testing.T) {
	out := &fakeOutput{}
	g := newGraph(out, 256)
	require.NoError(t, g.Resume(context.Background()))

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	assert.Equal(t, player.GraphClosed, g.State())
	assert.True(t, out.closed)
	assert.Error(t, g.Resume(context.Background()))
}

func TestGraphCloseWithoutDevice(t *testing.T) {
	out := &fakeOutput{}
	g := newGraph(out, 256)

	require.NoError(t, g.Close())
	assert.False(t, out.closed)
}

func TestWithOutputLock(t *testing.T) {
	out := &fakeOutput{}
	g := newGraph(out, 256)

	ran := 0
	g.withOutputLock(func() { ran++ })
	assert.Equal(t, 0, out.locks)

	require.NoError(t, g.Resume(context.Background()))
	g.withOutputLock(func() { ran++ })
	assert.Equal(t, 1, out.locks)
	assert.Equal(t, 2, ran)
}
