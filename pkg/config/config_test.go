package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	addr, err := cfg.UDPAddr()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:26760", addr.String())

	timeout, err := cfg.ClientTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	interval, err := cfg.MotionIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, interval)
}

func TestPersistLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")

	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	cfg.Port = 26800
	cfg.ClientTimeout = "2s"
	require.NoError(t, cfg.Persist(false))

	err := cfg.Persist(false)
	assert.IsType(t, ErrConfigFileExists{}, err)
	require.NoError(t, cfg.Persist(true))

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, 26800, loaded.Port)
	assert.Equal(t, "2s", loaded.ClientTimeout)
	assert.Equal(t, DefaultIP, loaded.IP)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ip", func(c *Config) { c.IP = "localhost:1" }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"bad api port", func(c *Config) { c.ApiPort = -1 }},
		{"bad timeout", func(c *Config) { c.ClientTimeout = "soon" }},
		{"zero timeout", func(c *Config) { c.ClientTimeout = "0s" }},
		{"negative interval", func(c *Config) { c.MotionInterval = "-1ms" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
