// Package config loads tinsel's settings: built-in defaults, then an
// optional TOML file, then TINSEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "TINSEL_"

// Landmark sources.
const (
	// SourceCamera runs detection on the local webcam.
	SourceCamera = "camera"
	// SourceClient takes landmarks pushed by WebSocket clients.
	SourceClient = "client"
)

// Config holds every runtime setting.
type Config struct {
	Listen    string `toml:"listen" env:"LISTEN"`
	DataDir   string `toml:"data_dir" env:"DATA_DIR"`
	StaticDir string `toml:"static_dir" env:"STATIC_DIR"`
	// DropDir is watched for new photos. Empty disables the watcher.
	DropDir string `toml:"drop_dir" env:"DROP_DIR"`

	Source          string  `toml:"source" env:"SOURCE"`
	CameraID        int     `toml:"camera_id" env:"CAMERA_ID"`
	Mirror          bool    `toml:"mirror" env:"MIRROR"`
	MotionThreshold float64 `toml:"motion_threshold" env:"MOTION_THRESHOLD"`
	MinConfidence   float64 `toml:"min_confidence" env:"MIN_CONFIDENCE"`
	RenderFPS       int     `toml:"render_fps" env:"RENDER_FPS"`

	Tray        bool `toml:"tray" env:"TRAY"`
	SeedSamples bool `toml:"seed_samples" env:"SEED_SAMPLES"`

	// OTelEndpoint enables trace export when set, e.g. http://localhost:4318.
	OTelEndpoint string `toml:"otel_endpoint" env:"OTEL_ENDPOINT"`
}

// Default returns the built-in settings. DataDir is ~/.tinsel.
func Default() Config {
	dataDir := ".tinsel"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".tinsel")
	}
	return Config{
		Listen:          ":8080",
		DataDir:         dataDir,
		Source:          SourceCamera,
		Mirror:          true,
		MotionThreshold: 1.0,
		MinConfidence:   0.6,
		RenderFPS:       60,
		Tray:            true,
		SeedSamples:     true,
	}
}

// DefaultPath is the config file read when TINSEL_CONFIG is unset.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tinsel", "config.toml")
}

// Load reads the config file named by TINSEL_CONFIG, or DefaultPath, and
// applies the environment on top. A missing default file is not an error;
// a missing TINSEL_CONFIG file is.
func Load() (Config, error) {
	path, explicit := os.LookupEnv(EnvPrefix + "CONFIG")
	if !explicit {
		path = DefaultPath()
	}
	return LoadFile(path, explicit)
}

// LoadFile is Load with an explicit file path. With required unset a
// missing file is skipped.
func LoadFile(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays TINSEL_* variables onto target. Unset variables leave
// fields untouched.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is empty")
	}
	if c.DataDir == "" {
		return errors.New("config: data dir is empty")
	}
	switch c.Source {
	case SourceCamera, SourceClient:
	default:
		return fmt.Errorf("config: unknown landmark source %q", c.Source)
	}
	if c.RenderFPS < 1 || c.RenderFPS > 240 {
		return fmt.Errorf("config: render fps %d out of range [1, 240]", c.RenderFPS)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("config: min confidence %.2f out of range [0, 1]", c.MinConfidence)
	}
	return nil
}

// DBPath returns the catalog database path.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "tinsel.db")
}

// PhotoDir returns where uploaded photos are stored.
func (c Config) PhotoDir() string {
	return filepath.Join(c.DataDir, "photos")
}
