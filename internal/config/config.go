package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkspaceHotkeys switch the visible workspace while the overview is shown.
type WorkspaceHotkeys struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
	Up    string `yaml:"up"`
	Down  string `yaml:"down"`
}

// Config holds the application configuration.
type Config struct {
	Duration          int              `yaml:"duration"`
	Spacing           int              `yaml:"spacing"`
	Interact          bool             `yaml:"interact"`
	MiddleClickClose  bool             `yaml:"middle_click_close"`
	InactiveAlpha     float64          `yaml:"inactive_alpha"`
	AllowZoom         bool             `yaml:"allow_zoom"`
	ShowMinimized     bool             `yaml:"show_minimized"`
	ChildScaleCeiling float64          `yaml:"child_scale_ceiling"`
	FrameRate         int              `yaml:"frame_rate"`
	Easing            string           `yaml:"easing"`
	ToggleHotkey      string           `yaml:"toggle_hotkey"`
	ToggleAllHotkey   string           `yaml:"toggle_all_hotkey"`
	WorkspaceHotkeys  WorkspaceHotkeys `yaml:"workspace_hotkeys"`
	LogLevel          string           `yaml:"log_level"`
	Display           string           `yaml:"display,omitempty"`
	XAuthority        string           `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Duration:          750,
		Spacing:           50,
		InactiveAlpha:     0.5,
		ShowMinimized:     true,
		ChildScaleCeiling: 1.0,
		FrameRate:         60,
		Easing:            "smoothstep",
		ToggleHotkey:      "Mod4-Mod1-s",
		ToggleAllHotkey:   "Mod4-Mod1-a",
		WorkspaceHotkeys: WorkspaceHotkeys{
			Left:  "Mod4-Mod1-Left",
			Right: "Mod4-Mod1-Right",
			Up:    "Mod4-Mod1-Up",
			Down:  "Mod4-Mod1-Down",
		},
		LogLevel: "info",
	}
}

// SaveTo writes the configuration to path, creating its directory. Comments
// and includes of an existing file are not preserved.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.Duration < 0 {
		return &ValidationError{Path: "duration", Err: fmt.Errorf("duration must be >= 0")}
	}
	if c.Spacing < 0 {
		return &ValidationError{Path: "spacing", Err: fmt.Errorf("spacing must be >= 0")}
	}
	if c.InactiveAlpha < 0 || c.InactiveAlpha > 1 {
		return &ValidationError{Path: "inactive_alpha", Err: fmt.Errorf("inactive_alpha must be between 0 and 1")}
	}
	if c.ChildScaleCeiling <= 0 {
		return &ValidationError{Path: "child_scale_ceiling", Err: fmt.Errorf("child_scale_ceiling must be > 0")}
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		return &ValidationError{Path: "frame_rate", Err: fmt.Errorf("frame_rate must be between 1 and 240")}
	}
	switch c.Easing {
	case "linear", "smoothstep", "cubic":
	default:
		return &ValidationError{Path: "easing", Err: fmt.Errorf("easing must be one of: linear, smoothstep, cubic")}
	}
	if strings.TrimSpace(c.ToggleHotkey) == "" {
		return &ValidationError{Path: "toggle_hotkey", Err: fmt.Errorf("toggle_hotkey is required")}
	}
	if c.ToggleHotkey == c.ToggleAllHotkey {
		return &ValidationError{Path: "toggle_all_hotkey", Err: fmt.Errorf("toggle_all_hotkey must differ from toggle_hotkey")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	if c == nil {
		return nil
	}
	var warnings []string
	if c.Duration > 0 && c.Duration < 1000/c.FrameRate {
		warnings = append(warnings, fmt.Sprintf("duration %dms is shorter than one frame at frame_rate %d", c.Duration, c.FrameRate))
	}
	if c.AllowZoom && c.ChildScaleCeiling > 1 {
		warnings = append(warnings, "child_scale_ceiling above 1 lets transient windows outgrow their parent")
	}
	return warnings
}

// Level maps log_level to a slog level. Unknown values fall back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
