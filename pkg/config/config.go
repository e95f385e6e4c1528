// Package config handles loading and saving canopy configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/canopy/config.yaml
//   - State:  ~/.local/state/canopy/ (expansion sets, pinned positions)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LayoutConfig holds the layout engine tuning knobs. Zero values fall
// back to the engine defaults, so a partial config file is fine.
type LayoutConfig struct {
	RepulsionStrength float64 `yaml:"repulsion_strength,omitempty"`
	LinkDistance      float64 `yaml:"link_distance,omitempty"`
	LinkStrength      float64 `yaml:"link_strength,omitempty"`
	AlphaDecay        float64 `yaml:"alpha_decay,omitempty"`
	VelocityDecay     float64 `yaml:"velocity_decay,omitempty"`
	MaxIterations     int     `yaml:"max_iterations,omitempty"`
	LevelSeparation   float64 `yaml:"level_separation,omitempty"`
	CollisionPadding  float64 `yaml:"collision_padding,omitempty"`
}

// CanvasConfig controls export canvas placement.
type CanvasConfig struct {
	CenterX float64 `yaml:"center_x,omitempty"`
	CenterY float64 `yaml:"center_y,omitempty"`
}

// UIConfig holds terminal viewer preferences.
type UIConfig struct {
	Animate  bool `yaml:"animate,omitempty"`  // stream frames instead of jumping to the final layout
	ShowIDs  bool `yaml:"show_ids,omitempty"` // render node ids alongside titles
	Headless bool `yaml:"headless,omitempty"` // compact header mode
}

// Config is the top-level canopy configuration.
type Config struct {
	DataPath string       `yaml:"data_path,omitempty"` // default graph snapshot to open
	Layout   LayoutConfig `yaml:"layout,omitempty"`
	Canvas   CanvasConfig `yaml:"canvas,omitempty"`
	UI       UIConfig     `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{Animate: true},
	}
}

// ConfigDir returns the XDG config directory for canopy.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "canopy")
}

// StateDir returns the XDG state directory for canopy.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "canopy")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
