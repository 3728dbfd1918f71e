package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "RadetzkyFM", cfg.Station.Name)
	assert.Equal(t, "http://katolikusradio.hu:9000/radetzkyfm", cfg.Station.StreamURL)
	assert.Equal(t, "http://katolikusradio.hu:9000/status-json.xsl", cfg.Station.StatusURL)
	assert.Equal(t, 3*time.Second, cfg.Station.ProbeTimeout)
	assert.Equal(t, 96, cfg.Station.DefaultBitrate)
	assert.Equal(t, 30*time.Second, cfg.Metadata.RefreshInterval)
	assert.Equal(t, 80, cfg.Player.Volume)
	assert.Equal(t, 256, cfg.Player.FFTSize)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("RADETZKY_STATION_NAME", "Other FM")
	t.Setenv("RADETZKY_METADATA_REFRESH_INTERVAL", "5s")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "Other FM", cfg.Station.Name)
	assert.Equal(t, 5*time.Second, cfg.Metadata.RefreshInterval)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radetzky.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
station:
  name: Test FM
  check_availability: true
player:
  volume: 35
  use_proxy: true
`), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "Test FM", cfg.Station.Name)
	assert.True(t, cfg.Station.CheckAvailability)
	assert.Equal(t, 35, cfg.Player.Volume)
	assert.True(t, cfg.Player.UseProxy)
}

func TestReadFileMissing(t *testing.T) {
	v := New()
	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "status url", mutate: func(c *Config) { c.Station.StatusURL = "" }},
		{name: "stream url", mutate: func(c *Config) { c.Station.StreamURL = "" }},
		{name: "interval", mutate: func(c *Config) { c.Metadata.RefreshInterval = 0 }},
		{name: "volume", mutate: func(c *Config) { c.Player.Volume = 101 }},
		{name: "fft size", mutate: func(c *Config) { c.Player.FFTSize = 300 }},
		{name: "small fft size", mutate: func(c *Config) { c.Player.FFTSize = 16 }},
		{name: "fps", mutate: func(c *Config) { c.Player.FPS = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestPlayerStreamURL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Station.StreamURL, cfg.PlayerStreamURL())

	cfg.Player.StreamURL = "http://other/stream"
	assert.Equal(t, "http://other/stream", cfg.PlayerStreamURL())

	cfg.Player.UseProxy = true
	cfg.Player.APIURL = "http://localhost:8080/"
	assert.Equal(t, "http://localhost:8080/api/proxy-stream?url=http%3A%2F%2Fother%2Fstream", cfg.PlayerStreamURL())
}
