// Package config defines the waveline configuration and its loading rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings like "5s" or "1m", or from integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Position is the screen edge a bar is attached to.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// ValidPositions returns all valid bar positions.
func ValidPositions() []Position {
	return []Position{PositionTop, PositionBottom}
}

// AppearanceStyle is the visual style of a bar.
type AppearanceStyle string

const (
	StyleSolid    AppearanceStyle = "solid"
	StyleGradient AppearanceStyle = "gradient"
	StyleIslands  AppearanceStyle = "islands"
)

// ValidStyles returns all valid appearance styles.
func ValidStyles() []AppearanceStyle {
	return []AppearanceStyle{StyleSolid, StyleGradient, StyleIslands}
}

// OutputsMode selects which displays get bars.
type OutputsMode string

const (
	OutputsAll     OutputsMode = "all"     // every display
	OutputsActive  OutputsMode = "active"  // only the compositor's active display
	OutputsTargets OutputsMode = "targets" // displays whose name contains a target substring
)

// OutputsFilter is the display-name filter applied to attach events and
// reconciliation passes.
type OutputsFilter struct {
	Mode    OutputsMode `toml:"mode"`
	Targets []string    `toml:"targets"`
}

// Matches reports whether a display with the given name should host bars.
// The active mode never matches an explicit name: its surfaces are only
// created through the fallback path, never bound to a real output.
// An empty name matches nothing except the all mode.
func (f OutputsFilter) Matches(name string) bool {
	switch f.Mode {
	case OutputsAll:
		return true
	case OutputsActive:
		return false
	case OutputsTargets:
		if name == "" {
			return false
		}
		for _, target := range f.Targets {
			if strings.Contains(name, target) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ModuleGroup is an ordered set of module names rendered as one visual unit.
// A single module is a group of one.
type ModuleGroup []string

// Layout places module groups in the three bar sections.
type Layout struct {
	Left   []ModuleGroup `toml:"left"`
	Center []ModuleGroup `toml:"center"`
	Right  []ModuleGroup `toml:"right"`
}

// Sections returns the three section lists in left, center, right order.
func (l Layout) Sections() [3][]ModuleGroup {
	return [3][]ModuleGroup{l.Left, l.Center, l.Right}
}

// BarConfig describes one bar. Multiple bars may be configured per display;
// list order defines the index correspondence used when reconciling
// configuration changes against live surfaces.
type BarConfig struct {
	Position Position        `toml:"position"`
	Style    AppearanceStyle `toml:"style"`
	// Modules overrides the global layout when non-nil.
	Modules *Layout `toml:"modules"`
}

// AppearanceConfig holds global visual settings.
type AppearanceConfig struct {
	Style       AppearanceStyle `toml:"style"`
	ScaleFactor float64         `toml:"scale_factor"`
	Opacity     float64         `toml:"opacity"`
}

// ClockConfig configures the clock module.
type ClockConfig struct {
	Format string `toml:"format"`
}

// CPUConfig configures the CPU telemetry readout.
type CPUConfig struct {
	WarnThreshold  int `toml:"warn_threshold"`  // percent
	AlertThreshold int `toml:"alert_threshold"` // percent
}

// TemperatureConfig configures the temperature readout.
type TemperatureConfig struct {
	Sensor         string `toml:"sensor"`          // hwmon label substring
	WarnThreshold  int    `toml:"warn_threshold"`  // celsius
	AlertThreshold int    `toml:"alert_threshold"` // celsius
}

// SystemInfoConfig configures the telemetry module and its snapshot service.
type SystemInfoConfig struct {
	CPU             CPUConfig         `toml:"cpu"`
	Temperature     TemperatureConfig `toml:"temperature"`
	RefreshInterval Duration          `toml:"refresh_interval"`
}

// UpdatesConfig configures the package-updates module. An empty CheckCmd
// disables the module.
type UpdatesConfig struct {
	CheckCmd      string   `toml:"check_cmd"`
	UpdateCmd     string   `toml:"update_cmd"`
	CheckInterval Duration `toml:"check_interval"`
}

// MediaPlayerConfig configures the MPRIS media player module.
type MediaPlayerConfig struct {
	MaxTitleLength int `toml:"max_title_length"`
}

// SettingsConfig configures the settings menu's power and session actions.
// Empty commands hide the corresponding entry.
type SettingsConfig struct {
	LockCmd     string `toml:"lock_cmd"`
	SuspendCmd  string `toml:"suspend_cmd"`
	RebootCmd   string `toml:"reboot_cmd"`
	ShutdownCmd string `toml:"shutdown_cmd"`
	LogoutCmd   string `toml:"logout_cmd"`
}

// Config is the full waveline configuration.
// Loaded from ~/.config/waveline/waveline.toml.
type Config struct {
	Position     Position         `toml:"position"`
	Appearance   AppearanceConfig `toml:"appearance"`
	Outputs      OutputsFilter    `toml:"outputs"`
	Modules      Layout           `toml:"modules"`
	Bars         []BarConfig      `toml:"bars"`
	EnableEscKey bool             `toml:"enable_esc_key"`

	Clock       ClockConfig       `toml:"clock"`
	SystemInfo  SystemInfoConfig  `toml:"system_info"`
	Updates     UpdatesConfig     `toml:"updates"`
	MediaPlayer MediaPlayerConfig `toml:"media_player"`
	Settings    SettingsConfig    `toml:"settings"`
}

// KnownModules lists the module names accepted in layouts.
func KnownModules() []string {
	return []string{"clock", "sysinfo", "updates", "tray", "mediaplayer", "settings"}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Position: PositionTop,
		Appearance: AppearanceConfig{
			Style:       StyleIslands,
			ScaleFactor: 1.0,
			Opacity:     1.0,
		},
		Outputs: OutputsFilter{Mode: OutputsAll},
		Modules: Layout{
			Left:   []ModuleGroup{{"clock"}},
			Center: []ModuleGroup{{"mediaplayer"}},
			Right:  []ModuleGroup{{"sysinfo", "updates"}, {"tray"}, {"settings"}},
		},
		EnableEscKey: true,
		Clock:        ClockConfig{Format: "Mon 2 Jan 15:04"},
		SystemInfo: SystemInfoConfig{
			CPU:             CPUConfig{WarnThreshold: 60, AlertThreshold: 80},
			Temperature:     TemperatureConfig{Sensor: "k10temp", WarnThreshold: 60, AlertThreshold: 80},
			RefreshInterval: Duration(5 * time.Second),
		},
		Updates: UpdatesConfig{
			CheckInterval: Duration(time.Hour),
		},
		MediaPlayer: MediaPlayerConfig{MaxTitleLength: 40},
		Settings: SettingsConfig{
			LockCmd:     "loginctl lock-session",
			SuspendCmd:  "systemctl suspend",
			RebootCmd:   "systemctl reboot",
			ShutdownCmd: "systemctl poweroff",
		},
	}
}

// BarConfigs resolves the effective ordered bar list. With no explicit bars
// configured, a single bar is derived from the top-level position and style.
// Explicit bars inherit the global position and style when theirs are empty.
func (c *Config) BarConfigs() []BarConfig {
	if len(c.Bars) == 0 {
		return []BarConfig{{Position: c.Position, Style: c.Appearance.Style}}
	}

	bars := make([]BarConfig, len(c.Bars))
	copy(bars, c.Bars)
	for i := range bars {
		if bars[i].Position == "" {
			bars[i].Position = c.Position
		}
		if bars[i].Style == "" {
			bars[i].Style = c.Appearance.Style
		}
	}
	return bars
}

// LayoutFor returns the layout for a bar, falling back to the global layout.
func (c *Config) LayoutFor(bar BarConfig) Layout {
	if bar.Modules != nil {
		return *bar.Modules
	}
	return c.Modules
}

// Path returns the path to the config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "waveline", "waveline.toml"), nil
}

// Load loads the configuration from the given path. An empty path uses the
// default location. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validPosition(c.Position); err != nil {
		return err
	}
	if err := validStyle(c.Appearance.Style); err != nil {
		return err
	}
	if c.Appearance.ScaleFactor < 0.5 || c.Appearance.ScaleFactor > 4 {
		return fmt.Errorf("scale_factor must be between 0.5 and 4, got %v", c.Appearance.ScaleFactor)
	}
	if c.Appearance.Opacity < 0 || c.Appearance.Opacity > 1 {
		return fmt.Errorf("opacity must be between 0 and 1, got %v", c.Appearance.Opacity)
	}

	switch c.Outputs.Mode {
	case OutputsAll, OutputsActive:
	case OutputsTargets:
		if len(c.Outputs.Targets) == 0 {
			return fmt.Errorf("outputs mode %q requires at least one target", OutputsTargets)
		}
	default:
		return fmt.Errorf("invalid outputs mode %q", c.Outputs.Mode)
	}

	for _, bar := range c.Bars {
		if bar.Position != "" {
			if err := validPosition(bar.Position); err != nil {
				return err
			}
		}
		if bar.Style != "" {
			if err := validStyle(bar.Style); err != nil {
				return err
			}
		}
		if bar.Modules != nil {
			if err := validLayout(*bar.Modules); err != nil {
				return err
			}
		}
	}

	if err := validLayout(c.Modules); err != nil {
		return err
	}

	if c.SystemInfo.RefreshInterval.Duration() < time.Second {
		return fmt.Errorf("system_info refresh_interval must be at least 1s, got %s", c.SystemInfo.RefreshInterval.Duration())
	}

	return nil
}

func validPosition(p Position) error {
	for _, v := range ValidPositions() {
		if p == v {
			return nil
		}
	}
	return fmt.Errorf("invalid position %q, must be one of: %v", p, ValidPositions())
}

func validStyle(s AppearanceStyle) error {
	for _, v := range ValidStyles() {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("invalid style %q, must be one of: %v", s, ValidStyles())
}

func validLayout(l Layout) error {
	known := make(map[string]bool, len(KnownModules()))
	for _, name := range KnownModules() {
		known[name] = true
	}
	for _, section := range l.Sections() {
		for _, group := range section {
			for _, name := range group {
				if !known[name] {
					return fmt.Errorf("unknown module %q, must be one of: %v", name, KnownModules())
				}
			}
		}
	}
	return nil
}
