package config

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Station defaults
	v.SetDefault("station.name", "RadetzkyFM")
	v.SetDefault("station.description", "Catholic Radio Stream")
	v.SetDefault("station.match", "radetzkyfm")
	v.SetDefault("station.status_url", "http://katolikusradio.hu:9000/status-json.xsl")
	v.SetDefault("station.stream_url", "http://katolikusradio.hu:9000/radetzkyfm")
	v.SetDefault("station.fallback_stream_url", "https://katolikusradio.hu:8001/radetzkyfm")
	v.SetDefault("station.check_availability", false)
	v.SetDefault("station.probe_timeout", 3*time.Second)
	v.SetDefault("station.status_timeout", 10*time.Second)
	v.SetDefault("station.default_bitrate", 96)
	v.SetDefault("station.default_genre", "Music")
	v.SetDefault("station.default_server_type", "audio/aac")

	// Metadata refresh defaults
	v.SetDefault("metadata.refresh_interval", 30*time.Second)
	v.SetDefault("metadata.timeout", 10*time.Second)

	// Player defaults
	v.SetDefault("player.api_url", "http://localhost:8080")
	v.SetDefault("player.stream_url", "")
	v.SetDefault("player.use_proxy", false)
	v.SetDefault("player.volume", 80)
	v.SetDefault("player.fft_size", 256)
	v.SetDefault("player.fps", 30)
	v.SetDefault("player.plain", false)
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	cfg, err := Load(New())
	if err != nil {
		// Defaults are static; failing here is a programming error
		panic(err)
	}
	return cfg
}
