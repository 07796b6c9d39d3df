package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/chris/tvgrid/internal/viewport"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tvgrid.
type Config struct {
	Source  Source  `yaml:"source"`
	Display Display `yaml:"display"`
	Grid    Grid    `yaml:"grid"`
	Logging Logging `yaml:"logging"`
	Server  Server  `yaml:"server"`
}

// Source selects where schedule data comes from. A non-empty RemoteURL
// wins over the local database. An empty DBPath resolves to the XDG data
// directory.
type Source struct {
	DBPath    string        `yaml:"db_path"`
	RemoteURL string        `yaml:"remote_url"`
	Group     string        `yaml:"group"`
	Channels  []string      `yaml:"channels"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   uint          `yaml:"retries"`
	BatchSize int           `yaml:"batch_size"`
}

// Display holds the display preferences of the grid.
type Display struct {
	Clock28      bool              `yaml:"clock28"`
	ChannelWidth int               `yaml:"channel_width"`
	HourHeight   int               `yaml:"hour_height"`
	HoverExpand  bool              `yaml:"hover_expand"`
	DateFormat   string            `yaml:"date_format"`
	GenreColors  map[string]string `yaml:"genre_colors"`
}

// Grid holds the interaction tunables.
type Grid struct {
	DragThreshold   float64       `yaml:"drag_threshold"`
	Friction        float64       `yaml:"friction"`
	StopVelocity    float64       `yaml:"stop_velocity"`
	FrameInterval   time.Duration `yaml:"frame_interval"`
	ScrollThrottle  time.Duration `yaml:"scroll_throttle"`
	MinVisibleSlice float64       `yaml:"min_visible_slice"`
	MinCellHeight   float64       `yaml:"min_cell_height"`
}

// Logging configures the application logger.
type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Server holds the schedule server listener configuration.
type Server struct {
	Addr string `yaml:"addr"`
}

// Viewport converts the grid tunables for the viewport controller.
func (g Grid) Viewport() viewport.Config {
	return viewport.Config{
		DragThreshold:  g.DragThreshold,
		Friction:       g.Friction,
		StopVelocity:   g.StopVelocity,
		FrameInterval:  g.FrameInterval,
		ScrollThrottle: g.ScrollThrottle,
	}
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// DefaultDir returns ~/.tvgrid, or the working directory when there is no home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".tvgrid")
}

// Default returns a Config with every field set.
func Default() *Config {
	vp := viewport.DefaultConfig()
	dir := DefaultDir()
	return &Config{
		Source: Source{
			Timeout:   10 * time.Second,
			Retries:   3,
			BatchSize: 20,
		},
		Display: Display{
			ChannelWidth: 24,
			HourHeight:   4,
			DateFormat:   "%m/%d %a",
			GenreColors: map[string]string{
				"news":        "33",
				"sports":      "34",
				"drama":       "170",
				"movie":       "167",
				"anime":       "214",
				"documentary": "71",
				"variety":     "178",
			},
		},
		Grid: Grid{
			DragThreshold:   vp.DragThreshold,
			Friction:        vp.Friction,
			StopVelocity:    vp.StopVelocity,
			FrameInterval:   vp.FrameInterval,
			ScrollThrottle:  vp.ScrollThrottle,
			MinVisibleSlice: 1,
			MinCellHeight:   1,
		},
		Logging: Logging{
			Level:      "info",
			File:       filepath.Join(dir, "tvgrid.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: Server{
			Addr: "127.0.0.1:8765",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration at path from fsys on top of the
// defaults and then applies environment variable overrides. A missing file
// is not an error.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(fsys afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TVGRID_DB"); v != "" {
		cfg.Source.DBPath = v
	}
	if v := os.Getenv("TVGRID_REMOTE_URL"); v != "" {
		cfg.Source.RemoteURL = v
	}
	if v := os.Getenv("TVGRID_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate rejects values the grid cannot work with.
func (c *Config) Validate() error {
	if c.Display.ChannelWidth < 4 {
		return fmt.Errorf("display.channel_width must be at least 4, got %d", c.Display.ChannelWidth)
	}
	if c.Display.HourHeight < 1 {
		return fmt.Errorf("display.hour_height must be at least 1, got %d", c.Display.HourHeight)
	}
	if c.Grid.Friction <= 0 || c.Grid.Friction >= 1 {
		return fmt.Errorf("grid.friction must be between 0 and 1, got %v", c.Grid.Friction)
	}
	if c.Grid.DragThreshold < 0 {
		return fmt.Errorf("grid.drag_threshold must not be negative, got %v", c.Grid.DragThreshold)
	}
	return nil
}
