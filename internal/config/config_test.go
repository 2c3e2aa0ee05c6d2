package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revisit/internal/ics"
	"revisit/internal/offset"
)

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "1weeks", cfg.DefaultToken)
	assert.Equal(t, ics.DefaultProductID, cfg.ICS.ProductID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
listen: 0.0.0.0:9000
log_level: DEBUG
store_path: /tmp/revisit-prefs.json
default_token: 3months
ics:
  uid_domain: notes.example
  random_uid: true
basic_auth:
  username: me
  password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/revisit-prefs.json", cfg.StorePath)
	assert.Equal(t, offset.Token{Count: 3, Unit: offset.UnitMonths}, cfg.Default())
	assert.Equal(t, "notes.example", cfg.ICS.UIDDomain)
	assert.Equal(t, ics.DefaultProductID, cfg.ICS.ProductID)
	assert.True(t, cfg.ICS.RandomUID)
	assert.True(t, cfg.BasicAuthEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:1111\n"), 0o600))

	t.Setenv("REVISIT_LISTEN", "127.0.0.1:2222")
	t.Setenv("REVISIT_ICS__RANDOM_UID", "true")
	t.Setenv("REVISIT_DEFAULT_TOKEN", "2years")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", cfg.Listen)
	assert.True(t, cfg.ICS.RandomUID)
	assert.Equal(t, "2years", cfg.DefaultToken)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{DefaultToken: "whenever", LogLevel: "loud"}
	cfg.Normalize()

	assert.Equal(t, "1weeks", cfg.DefaultToken)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.Listen)
	assert.NotEmpty(t, cfg.StorePath)
	assert.Equal(t, ics.DefaultUIDDomain, cfg.ICS.UIDDomain)
	assert.False(t, cfg.BasicAuthEnabled())

	cfg = &Config{DefaultToken: " 4weeks "}
	cfg.Normalize()
	assert.Equal(t, "4weeks", cfg.DefaultToken)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = ":7070"
	cfg.BasicAuth = BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Listen)
	assert.Equal(t, "u", loaded.BasicAuth.Username)

	assert.Error(t, Save("", cfg))
	assert.Error(t, Save(path, nil))
}
