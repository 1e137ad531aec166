package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSaveLoadFeedsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.AppName = "blog"
	cfg.URI = "mongodb://localhost:27017/blog"
	require.NoError(t, cfg.Save(path))
	require.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "blog", s.String(KeyAppName))
	assert.Equal(t, "mongodb://localhost:27017/blog", s.String("MONGO_URI"))
	assert.False(t, s.Has("MONGO_USERNAME"))
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfigSettingsResolves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database = "blog"
	cfg.AdminUsername = "admin"

	s := cfg.Settings()
	assert.False(t, s.Has("MONGO_URI"))
	assert.False(t, s.Has(KeyPassword))
	assert.Equal(t, "admin", s.String(KeyUsername))

	resolved, err := Resolve(cfg.AppName, s, DefaultPrefix)
	require.NoError(t, err)
	assert.Equal(t, "localhost:27017", resolved.Address())
	assert.Equal(t, "blog", resolved.Database)
}
