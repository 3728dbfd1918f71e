package tui

import (
	"context"
	"io"
	"sync"
	"time"

	"radetzky/player"
	"radetzky/types"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Plain reports player activity as log lines, for terminals without a full-screen UI.
// A spinner is shown on out while the stream is loading.
type Plain struct {
	player *player.Player
	out    io.Writer

	mu      sync.Mutex
	last    player.Status
	spinner *progressbar.ProgressBar
	stop    chan struct{}
}

// NewPlain creates a plain reporter and subscribes it to p
func NewPlain(p *player.Player, out io.Writer) *Plain {
	pl := &Plain{player: p, out: out, last: p.State().Status}
	p.Subscribe(pl.onState)
	return pl
}

func (pl *Plain) onState(st player.State) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if st.Status == pl.last {
		return
	}
	pl.last = st.Status

	if st.Status == player.StatusLoading {
		pl.startSpinnerLocked()
	} else {
		pl.stopSpinnerLocked()
	}

	ev := log.Info()
	if st.Status == player.StatusError {
		ev = log.Error().Str("error", st.ErrorMessage)
	}
	ev.Str("status", st.Status.String()).Int("volume", st.Volume).Bool("muted", st.Muted).Msg("Player state changed")
}

func (pl *Plain) startSpinnerLocked() {
	if pl.spinner != nil {
		return
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(pl.out),
		progressbar.OptionSetDescription("Connecting to stream"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	stop := make(chan struct{})
	pl.spinner, pl.stop = bar, stop

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
}

func (pl *Plain) stopSpinnerLocked() {
	if pl.spinner == nil {
		return
	}
	close(pl.stop)
	_ = pl.spinner.Finish()
	pl.spinner, pl.stop = nil, nil
}

// OnMetadata logs every now-playing refresh
func (pl *Plain) OnMetadata(meta types.StreamMetadata) {
	log.Info().Str("station", meta.StationName).Str("track", meta.CurrentTrack).Msg("Now playing")
}

// Run starts playback and blocks until ctx is done, then closes the player
func (pl *Plain) Run(ctx context.Context) error {
	if err := pl.player.Play(ctx); err != nil && ctx.Err() == nil {
		// The error is already reflected in the state; retry is left to the user
		log.Warn().Err(err).Msg("Playback did not start")
	}

	<-ctx.Done()

	pl.mu.Lock()
	pl.stopSpinnerLocked()
	pl.mu.Unlock()
	return pl.player.Close()
}
