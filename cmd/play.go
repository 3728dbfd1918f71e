package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"radetzky/audio"
	"radetzky/config"
	"radetzky/logging"
	"radetzky/metadata"
	"radetzky/player"
	"radetzky/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the station with a spectrum visualizer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runPlayer(ctx, cfg)
	},
}

func init() {
	fs := playCmd.Flags()
	fs.String("api-url", "", "backend API base URL")
	fs.String("stream-url", "", "stream URL (defaults to the station stream)")
	fs.Bool("proxy", false, "route the stream through the backend proxy")
	fs.Int("volume", player.DefaultVolume, "initial volume 0-100")
	fs.Bool("plain", false, "log state changes instead of drawing the full-screen UI")
	flagFor(fs, "api-url", "player.api_url")
	flagFor(fs, "stream-url", "player.stream_url")
	flagFor(fs, "proxy", "player.use_proxy")
	flagFor(fs, "volume", "player.volume")
	flagFor(fs, "plain", "player.plain")
}

func runPlayer(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := player.New(audio.NewPlatform(cfg.Player.FFTSize), player.WithVolume(cfg.Player.Volume))
	if err := p.Initialize(cfg.PlayerStreamURL()); err != nil {
		return err
	}

	meta := metadata.NewClient(cfg.Player.APIURL, cfg.Metadata.Timeout)

	if cfg.Player.Plain {
		plain := tui.NewPlain(p, os.Stderr)
		meta.OnUpdate(plain.OnMetadata)
		go meta.Run(ctx, cfg.Metadata.RefreshInterval)
		return plain.Run(ctx)
	}

	// Console logs would corrupt the full-screen UI
	logFile, err := os.OpenFile(filepath.Join(os.TempDir(), "radetzky.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logging.SetupWriter(logFile, cfg.Log.Level, true)
	log.Debug().Str("url", p.URL()).Msg("Starting terminal UI")

	model := tui.New(ctx, cancel, p, tui.Options{
		Station:     cfg.Station.Name,
		Description: cfg.Station.Description,
		FPS:         cfg.Player.FPS,
	})
	meta.OnUpdate(model.OnMetadata)
	go meta.Run(ctx, cfg.Metadata.RefreshInterval)

	err = tui.Run(ctx, model)
	if closeErr := p.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
