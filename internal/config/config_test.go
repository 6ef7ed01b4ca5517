package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, ":8000", cfg.Server.Addr)
	require.Equal(t, 30*time.Second, cfg.GetSimTimeout())
	require.Equal(t, 24*time.Hour, cfg.GetTokenExpiry())
	require.False(t, cfg.Spice.StrictHeader)
	require.NotEmpty(t, cfg.Spice.BinaryCandidates)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlab.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9999"
	cfg.Spice.StrictHeader = true
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", loaded.Server.Addr)
	require.True(t, loaded.Spice.StrictHeader)
	require.Equal(t, "debug", loaded.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VLAB_ADDR", ":7070")
	t.Setenv("VLAB_SECRET_KEY", "test-secret")
	t.Setenv("VLAB_NGSPICE", "/opt/ngspice/bin/ngspice")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "test-secret", cfg.Auth.Secret)
	require.Equal(t, []string{"/opt/ngspice/bin/ngspice"}, cfg.Spice.BinaryCandidates)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Secret = "s"
	require.NoError(t, cfg.Validate())

	cfg.Auth.Secret = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.Auth.BcryptCost = 99
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.Spice.BinaryCandidates = nil
	require.Error(t, cfg.Validate())
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}
