package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ControllerType identifies the kind of hardware surface
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerLaunchpadPro  ControllerType = "launchpad-pro"
	ControllerNone          ControllerType = "none"
)

// ControllerConfig names the LED feedback surface
type ControllerConfig struct {
	PortName    string         `yaml:"port_name,omitempty"` // only ports containing this; empty accepts any
	Type        ControllerType `yaml:"type"`
	AutoConnect bool           `yaml:"auto_connect"`
}

// EngineConfig tunes the parameter channel and the playback observer
type EngineConfig struct {
	ChunkBytes    int           `yaml:"chunk_bytes"`
	LEDDivisor    int           `yaml:"led_divisor"`
	DirtyDebounce time.Duration `yaml:"dirty_debounce"`
	TickRate      time.Duration `yaml:"tick_rate"`
	OutputPort    string        `yaml:"output_port,omitempty"` // simulator note output
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastBPM int    `yaml:"last_bpm,omitempty"`
	LastSet int    `yaml:"last_set"`
	Palette string `yaml:"palette,omitempty"` // GPL file, empty for the built-in palette
}

// Config is the main configuration structure
type Config struct {
	DataDir    string           `yaml:"data_dir,omitempty"`
	Engine     EngineConfig     `yaml:"engine"`
	Controller ControllerConfig `yaml:"controller"`
	UI         UIConfig         `yaml:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ChunkBytes:    60000,
			LEDDivisor:    4,
			DirtyDebounce: 500 * time.Millisecond,
			TickRate:      time.Second / 100,
		},
		Controller: ControllerConfig{
			Type:        ControllerLaunchpadX,
			AutoConnect: true,
		},
		UI: UIConfig{
			LastBPM: 120,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-seqomd"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at the default path, or returns defaults if there is none
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Missing keys keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// SetsDir returns where set files live: data_dir when configured, else the config directory
func (c *Config) SetsDir() (string, error) {
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "sets"), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sets"), nil
}

// LogPath returns the debug log location
func (c *Config) LogPath() (string, error) {
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "debug.log"), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// normalize replaces unusable values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Engine.ChunkBytes <= 0 {
		c.Engine.ChunkBytes = def.Engine.ChunkBytes
	}
	if c.Engine.LEDDivisor <= 0 {
		c.Engine.LEDDivisor = def.Engine.LEDDivisor
	}
	if c.Engine.DirtyDebounce <= 0 {
		c.Engine.DirtyDebounce = def.Engine.DirtyDebounce
	}
	if c.Engine.TickRate <= 0 {
		c.Engine.TickRate = def.Engine.TickRate
	}
	if c.Controller.Type == "" {
		c.Controller.Type = ControllerNone
	}
	if c.UI.LastSet < 0 {
		c.UI.LastSet = 0
	}
}
