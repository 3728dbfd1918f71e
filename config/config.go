package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. RADETZKY_STATION_STATUS_URL
const EnvPrefix = "RADETZKY"

// Config represents the application configuration
type Config struct {
	// Logging settings
	Log LogConfig `mapstructure:"log"`

	// HTTP backend settings
	Server ServerConfig `mapstructure:"server"`

	// Upstream station settings
	Station StationConfig `mapstructure:"station"`

	// Now-playing refresh settings
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Player settings
	Player PlayerConfig `mapstructure:"player"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig contains HTTP backend settings
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StationConfig describes the Icecast station the backend serves
type StationConfig struct {
	Name              string        `mapstructure:"name"`
	Description       string        `mapstructure:"description"`
	Match             string        `mapstructure:"match"`
	StatusURL         string        `mapstructure:"status_url"`
	StreamURL         string        `mapstructure:"stream_url"`
	FallbackStreamURL string        `mapstructure:"fallback_stream_url"`
	CheckAvailability bool          `mapstructure:"check_availability"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	StatusTimeout     time.Duration `mapstructure:"status_timeout"`
	DefaultBitrate    int           `mapstructure:"default_bitrate"`
	DefaultGenre      string        `mapstructure:"default_genre"`
	DefaultServerType string        `mapstructure:"default_server_type"`
}

// MetadataConfig contains now-playing refresh settings
type MetadataConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// PlayerConfig contains player settings
type PlayerConfig struct {
	APIURL    string `mapstructure:"api_url"`
	StreamURL string `mapstructure:"stream_url"`
	UseProxy  bool   `mapstructure:"use_proxy"`
	Volume    int    `mapstructure:"volume"`
	FFTSize   int    `mapstructure:"fft_size"`
	FPS       int    `mapstructure:"fps"`
	Plain     bool   `mapstructure:"plain"`
}

// New creates a viper instance with defaults and environment bindings applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Unprefixed variables kept for existing deployments
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "SERVER_PORT")
	_ = v.BindEnv("server.mode", EnvPrefix+"_SERVER_MODE", "GIN_MODE")
	_ = v.BindEnv("server.cors_origins", EnvPrefix+"_SERVER_CORS_ORIGINS", "CORS_ORIGINS")

	return v
}

// ReadFile loads an optional YAML config file into v. An empty path searches the usual locations.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("radetzky")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/radetzky")
		v.AddConfigPath("/etc/radetzky")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// CORS_ORIGINS arrives as a single comma separated string
	var origins []string
	for _, entry := range cfg.Server.CORSOrigins {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	cfg.Server.CORSOrigins = origins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Station.StatusURL == "" {
		return fmt.Errorf("station.status_url is required")
	}
	if c.Station.StreamURL == "" {
		return fmt.Errorf("station.stream_url is required")
	}
	if c.Metadata.RefreshInterval <= 0 {
		return fmt.Errorf("metadata.refresh_interval must be positive")
	}
	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		return fmt.Errorf("player.volume must be within [0,100], got %d", c.Player.Volume)
	}
	if c.Player.FFTSize < 32 || c.Player.FFTSize&(c.Player.FFTSize-1) != 0 {
		return fmt.Errorf("player.fft_size must be a power of two >= 32, got %d", c.Player.FFTSize)
	}
	if c.Player.FPS <= 0 {
		return fmt.Errorf("player.fps must be positive")
	}
	return nil
}

// PlayerStreamURL returns the URL the player should bind, routed through the proxy when enabled
func (c *Config) PlayerStreamURL() string {
	stream := c.Player.StreamURL
	if stream == "" {
		stream = c.Station.StreamURL
	}
	if !c.Player.UseProxy {
		return stream
	}
	return strings.TrimRight(c.Player.APIURL, "/") + "/api/proxy-stream?url=" + url.QueryEscape(stream)
}
