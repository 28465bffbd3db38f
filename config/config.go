// Package config loads the caller-side aggregation configuration from YAML:
// which sources a deployment shows by default, its color scheme and the
// default viewer identity. None of this is engine state; the values are
// translated into a calendar.Request by the caller on every aggregation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/visibility"
)

// SourcesConfig toggles event sources.
type SourcesConfig struct {
	Tasks          bool     `yaml:"tasks"`
	Leave          bool     `yaml:"leave"`
	ImportantDates bool     `yaml:"important_dates"`
	Schedules      bool     `yaml:"schedules"`
	LogCategories  []string `yaml:"log_categories"`
}

// ColorsConfig holds per-source display colors as #RRGGBB strings.
type ColorsConfig struct {
	Task          string `yaml:"task"`
	TaskCompleted string `yaml:"task_completed"`
	Leave         string `yaml:"leave"`
	Log           string `yaml:"log"`
	ImportantDate string `yaml:"important_date"`
	Schedule      string `yaml:"schedule"`
}

// ViewerConfig identifies the default viewer. An empty UserID means the
// unrestricted admin dashboard context.
type ViewerConfig struct {
	UserID   string   `yaml:"user_id"`
	Admin    bool     `yaml:"admin"`
	GroupIDs []string `yaml:"group_ids"`
}

// Config is the top-level configuration.
type Config struct {
	// WindowDays is the default aggregation window length.
	WindowDays int `yaml:"window_days"`

	Sources SourcesConfig `yaml:"sources"`
	Colors  ColorsConfig  `yaml:"colors"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

// DefaultConfig returns an in-memory default configuration: every source
// on, default colors, a 31-day window, unrestricted viewer.
func DefaultConfig() *Config {
	return &Config{
		WindowDays: 31,
		Sources: SourcesConfig{
			Tasks:          true,
			Leave:          true,
			ImportantDates: true,
			Schedules:      true,
			LogCategories:  []string{},
		},
		Colors: ColorsConfig{
			Task:          calendar.DefaultColors.Task,
			TaskCompleted: calendar.DefaultColors.TaskCompleted,
			Leave:         calendar.DefaultColors.Leave,
			Log:           calendar.DefaultColors.Log,
			ImportantDate: calendar.DefaultColors.ImportantDate,
			Schedule:      calendar.DefaultColors.Schedule,
		},
	}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Normalize fills missing values with defaults so partially filled configs
// from older versions keep working. Malformed colors fall back to the
// default scheme rather than failing the load.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.Sources.LogCategories == nil {
		c.Sources.LogCategories = []string{}
	}
	normalizeColor(&c.Colors.Task, def.Colors.Task)
	normalizeColor(&c.Colors.TaskCompleted, def.Colors.TaskCompleted)
	normalizeColor(&c.Colors.Leave, def.Colors.Leave)
	normalizeColor(&c.Colors.Log, def.Colors.Log)
	normalizeColor(&c.Colors.ImportantDate, def.Colors.ImportantDate)
	normalizeColor(&c.Colors.Schedule, def.Colors.Schedule)
}

func normalizeColor(value *string, fallback string) {
	if !colorPattern.MatchString(*value) {
		*value = fallback
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: the default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed. The file may carry viewer identity, hence the tight perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// Filters translates the source toggles into engine filters.
func (c *Config) Filters() calendar.Filters {
	return calendar.Filters{
		Tasks:          c.Sources.Tasks,
		Leave:          c.Sources.Leave,
		ImportantDates: c.Sources.ImportantDates,
		Schedules:      c.Sources.Schedules,
		LogCategories:  c.Sources.LogCategories,
	}
}

// ColorScheme translates the color table into the engine's scheme.
func (c *Config) ColorScheme() calendar.ColorScheme {
	return calendar.ColorScheme{
		Task:          c.Colors.Task,
		TaskCompleted: c.Colors.TaskCompleted,
		Leave:         c.Colors.Leave,
		Log:           c.Colors.Log,
		ImportantDate: c.Colors.ImportantDate,
		Schedule:      c.Colors.Schedule,
	}
}

// RequestViewer returns the configured viewer, or nil for the unrestricted
// context.
func (c *Config) RequestViewer() *visibility.Viewer {
	if c.Viewer.UserID == "" && !c.Viewer.Admin {
		return nil
	}
	return &visibility.Viewer{
		UserID:   c.Viewer.UserID,
		Admin:    c.Viewer.Admin,
		GroupIDs: c.Viewer.GroupIDs,
	}
}
