package tui

import (
	"context"
	"fmt"
	"time"

	"radetzky/player"
	"radetzky/render"
	"radetzky/spectrum"
	"radetzky/types"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// VolumeStep is the change applied by the +/- keys
const VolumeStep = 5

// Lines reserved around the visualizer for header and footer
const chromeLines = 6

var (
	stationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa"))
	trackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	errorStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fecaca")).
			Background(lipgloss.Color("#7f1d1d")).
			Padding(0, 1)
)

type (
	frameMsg    time.Time
	stateMsg    player.State
	metaMsg     types.StreamMetadata
	playDoneMsg struct{ err error }
)

// Options configure the terminal UI
type Options struct {
	Station     string
	Description string
	FPS         int
}

// Model is the bubbletea model hosting the player, the visualizer and the now-playing header
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	player   *player.Player
	sampler  *spectrum.Sampler
	renderer render.Renderer
	canvas   *render.TerminalCanvas
	spinner  spinner.Model
	states   chan player.State
	metas    chan types.StreamMetadata
	opts     Options

	state   player.State
	meta    types.StreamMetadata
	hasMeta bool
	visual  string
	width   int
	height  int
	quit    bool
}

// New creates the model. Canceling ctx, or quitting, stops the frame loop and the
// metadata loop started by the caller with the same context.
func New(ctx context.Context, cancel context.CancelFunc, p *player.Player, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}

	bins := spectrum.DefaultFFTSize / 2
	var source spectrum.Source
	if a := p.Analyser(); a != nil {
		bins = a.FrequencyBinCount()
		source = a
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = trackStyle

	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		player:  p,
		sampler: spectrum.NewSampler(bins, source),
		canvas:  render.NewTerminalCanvas(0, 0),
		spinner: s,
		states:  make(chan player.State, 1),
		metas:   make(chan types.StreamMetadata, 1),
		opts:    opts,
		state:   p.State(),
	}

	p.Subscribe(func(st player.State) {
		offer(m.states, st)
	})
	return m
}

// offer hands v to the update loop without blocking. A value the loop has not
// taken yet is replaced, so only the latest one is delivered.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// OnMetadata is suitable as a metadata client update callback
func (m *Model) OnMetadata(meta types.StreamMetadata) {
	offer(m.metas, meta)
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-m.states:
			return stateMsg(st)
		case meta := <-m.metas:
			return metaMsg(meta)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) frameTick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.frameTick(), m.spinner.Tick, m.waitForEvent())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.Resize(msg.Width, max(0, msg.Height-chromeLines))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		if m.quit {
			return m, nil
		}
		m.drawFrame(time.Time(msg))
		return m, m.frameTick()

	case stateMsg:
		m.state = player.State(msg)
		return m, m.waitForEvent()

	case metaMsg:
		m.meta, m.hasMeta = types.StreamMetadata(msg), true
		return m, m.waitForEvent()

	case playDoneMsg:
		m.state = m.player.State()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quit = true
		m.cancel()
		_ = m.player.Close()
		return m, tea.Quit

	case " ", "enter":
		done := m.player.TogglePlayPauseAsync(m.ctx)
		m.state = m.player.State()
		return m, func() tea.Msg {
			return playDoneMsg{err: <-done}
		}

	case "m":
		m.player.ToggleMute()

	case "+", "=", "up":
		m.player.SetVolume(m.state.Volume + VolumeStep)

	case "-", "_", "down":
		m.player.SetVolume(m.state.Volume - VolumeStep)

	case "x", "esc":
		m.player.DismissError()
	}

	m.state = m.player.State()
	return m, nil
}

// drawFrame renders one visualizer frame, falling back to static art when the
// canvas cannot be drawn on
func (m *Model) drawFrame(now time.Time) {
	frame := m.sampler.Sample(m.state.IsPlaying(), now)
	if err := m.renderer.Draw(m.canvas, frame); err != nil {
		m.visual = render.Fallback(m.width)
		return
	}
	m.visual = m.canvas.String()
}

func (m *Model) View() string {
	if m.quit {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.visual,
		m.status(),
		m.footer(),
	)
}

func (m *Model) header() string {
	name := m.opts.Station
	track := "Loading track info..."
	if m.hasMeta {
		if m.meta.StationName != "" {
			name = m.meta.StationName
		}
		track = m.meta.CurrentTrack
	}

	lines := []string{stationStyle.Render(name)}
	if m.opts.Description != "" {
		lines = append(lines, dimStyle.Render(m.opts.Description))
	}
	lines = append(lines, trackStyle.Render("♪ "+track))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) status() string {
	if m.state.Status == player.StatusError {
		return errorStyle.Render(m.state.ErrorMessage + "  [x] dismiss")
	}

	var playback string
	switch m.state.Status {
	case player.StatusLoading:
		playback = m.spinner.View() + " Loading..."
	case player.StatusPlaying:
		playback = "▶ Playing"
	case player.StatusPaused:
		playback = "❚❚ Paused"
	default:
		playback = "Press space to play"
	}

	volume := fmt.Sprintf("Vol %d%%", m.state.Volume)
	if m.state.Muted {
		volume = "Muted"
	}
	return playback + dimStyle.Render("  ·  ") + volume
}

func (m *Model) footer() string {
	return dimStyle.Render("space play/pause · m mute · +/- volume · x dismiss · q quit")
}

// Run starts the full-screen UI and blocks until the user quits or ctx is done
func Run(ctx context.Context, m *Model) error {
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
