package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage modes for persisting the two quest collections.
const (
	StorageModeSnapshot      = "snapshot"
	StorageModeTransactional = "transactional"
)

// Photo retention bounds accepted at the configuration boundary.
const (
	MinMaxPhotos     = 5
	MaxMaxPhotos     = 100
	DefaultMaxPhotos = 20
)

// StorageConfig holds settings for the local quest database.
type StorageConfig struct {
	// DBPath is the SQLite file holding the local key-value records.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// QuotaBytes caps the total size of all stored records.
	QuotaBytes int64 `mapstructure:"quota_bytes" yaml:"quota_bytes"`

	// Mode is "snapshot" (independent whole-collection writes) or
	// "transactional" (both collections in one transaction).
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// PhotoConfig holds completion photo settings.
type PhotoConfig struct {
	MaxPhotos    int     `mapstructure:"max_photos" yaml:"max_photos"`
	MaxWidth     int     `mapstructure:"max_width" yaml:"max_width"`
	Quality      float64 `mapstructure:"quality" yaml:"quality"`
	MaxFileBytes int64   `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
}

// QuestConfig holds quest creation limits.
type QuestConfig struct {
	DailyPointCap int `mapstructure:"daily_point_cap" yaml:"daily_point_cap"`
	MinPoints     int `mapstructure:"min_points" yaml:"min_points"`
	MaxPoints     int `mapstructure:"max_points" yaml:"max_points"`
}

// RemoteConfig holds settings for the shared profile database.
type RemoteConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath          string `mapstructure:"db_path" yaml:"db_path"`
	SyncIntervalSec int    `mapstructure:"sync_interval_sec" yaml:"sync_interval_sec"`
}

// GuardConfig holds duplicate submission settings.
type GuardConfig struct {
	WindowMS int `mapstructure:"window_ms" yaml:"window_ms"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Photos  PhotoConfig   `mapstructure:"photos" yaml:"photos"`
	Quests  QuestConfig   `mapstructure:"quests" yaml:"quests"`
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Guard   GuardConfig   `mapstructure:"guard" yaml:"guard"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/quests/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "quests", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "quests")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dir := defaultDataDir()
	return &AppConfig{
		Storage: StorageConfig{
			DBPath:     filepath.Join(dir, "quests.db"),
			QuotaBytes: 5 * 1024 * 1024,
			Mode:       StorageModeSnapshot,
		},
		Photos: PhotoConfig{
			MaxPhotos:    DefaultMaxPhotos,
			MaxWidth:     600,
			Quality:      0.6,
			MaxFileBytes: 5 * 1024 * 1024,
		},
		Quests: QuestConfig{
			DailyPointCap: 100,
			MinPoints:     MinPoints,
			MaxPoints:     MaxPoints,
		},
		Remote: RemoteConfig{
			Enabled:         false,
			DBPath:          filepath.Join(dir, "profiles.db"),
			SyncIntervalSec: 120,
		},
		Guard: GuardConfig{WindowMS: 500},
		Log:   LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("storage.quota_bytes", cfg.Storage.QuotaBytes)
	v.SetDefault("storage.mode", cfg.Storage.Mode)
	v.SetDefault("photos.max_photos", cfg.Photos.MaxPhotos)
	v.SetDefault("photos.max_width", cfg.Photos.MaxWidth)
	v.SetDefault("photos.quality", cfg.Photos.Quality)
	v.SetDefault("photos.max_file_bytes", cfg.Photos.MaxFileBytes)
	v.SetDefault("quests.daily_point_cap", cfg.Quests.DailyPointCap)
	v.SetDefault("quests.min_points", cfg.Quests.MinPoints)
	v.SetDefault("quests.max_points", cfg.Quests.MaxPoints)
	v.SetDefault("remote.enabled", cfg.Remote.Enabled)
	v.SetDefault("remote.db_path", cfg.Remote.DBPath)
	v.SetDefault("remote.sync_interval_sec", cfg.Remote.SyncIntervalSec)
	v.SetDefault("guard.window_ms", cfg.Guard.WindowMS)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden by QUESTS_* environment variables, for example
// QUESTS_PHOTOS_MAX_PHOTOS. If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("QUESTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges that the rest of the application relies on.
func (c *AppConfig) Validate() error {
	if err := ValidateMaxPhotos(c.Photos.MaxPhotos); err != nil {
		return err
	}
	if c.Photos.MaxWidth <= 0 {
		return fmt.Errorf("photos.max_width must be positive, got %d", c.Photos.MaxWidth)
	}
	if c.Photos.Quality <= 0 || c.Photos.Quality > 1 {
		return fmt.Errorf("photos.quality must be in (0,1], got %v", c.Photos.Quality)
	}
	if c.Quests.MinPoints > c.Quests.MaxPoints {
		return fmt.Errorf("quests.min_points %d exceeds quests.max_points %d",
			c.Quests.MinPoints, c.Quests.MaxPoints)
	}
	switch c.Storage.Mode {
	case StorageModeSnapshot, StorageModeTransactional:
	default:
		return fmt.Errorf("unknown storage.mode %q", c.Storage.Mode)
	}
	return nil
}

// ValidateMaxPhotos checks the photo retention limit range.
func ValidateMaxPhotos(n int) error {
	if n < MinMaxPhotos || n > MaxMaxPhotos {
		return fmt.Errorf("max photos must be between %d and %d, got %d",
			MinMaxPhotos, MaxMaxPhotos, n)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("photos", cfg.Photos)
	v.Set("quests", cfg.Quests)
	v.Set("remote", cfg.Remote)
	v.Set("guard", cfg.Guard)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
