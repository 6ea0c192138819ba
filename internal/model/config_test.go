package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	def := DefaultAppConfig()
	assert.Equal(t, def.Photos, cfg.Photos)
	assert.Equal(t, def.Quests, cfg.Quests)
	assert.Equal(t, StorageModeSnapshot, cfg.Storage.Mode)
	assert.Equal(t, 500, cfg.Guard.WindowMS)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Photos.MaxPhotos = 40
	cfg.Photos.MaxWidth = 800
	cfg.Photos.Quality = 0.8
	cfg.Storage.Mode = StorageModeTransactional
	cfg.Remote.Enabled = true
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.Photos.MaxPhotos)
	assert.Equal(t, 800, loaded.Photos.MaxWidth)
	assert.InDelta(t, 0.8, loaded.Photos.Quality, 1e-9)
	assert.Equal(t, StorageModeTransactional, loaded.Storage.Mode)
	assert.True(t, loaded.Remote.Enabled)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("QUESTS_PHOTOS_MAX_PHOTOS", "50")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Photos.MaxPhotos)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := map[string]string{
		"max photos too small": "photos:\n  max_photos: 2\n",
		"max photos too large": "photos:\n  max_photos: 500\n",
		"quality above one":    "photos:\n  quality: 1.5\n",
		"unknown mode":         "storage:\n  mode: eventual\n",
		"points inverted":      "quests:\n  min_points: 500\n  max_points: 100\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}
}

func TestValidateMaxPhotos(t *testing.T) {
	assert.Error(t, ValidateMaxPhotos(4))
	assert.NoError(t, ValidateMaxPhotos(5))
	assert.NoError(t, ValidateMaxPhotos(100))
	assert.Error(t, ValidateMaxPhotos(101))
}
