package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWorkspaceHotkeys struct {
	Left  *string `yaml:"left"`
	Right *string `yaml:"right"`
	Up    *string `yaml:"up"`
	Down  *string `yaml:"down"`
}

// RawConfig is one YAML file before defaults are applied. Nil means unset.
type RawConfig struct {
	Include           IncludeList          `yaml:"include"`
	Duration          *int                 `yaml:"duration"`
	Spacing           *int                 `yaml:"spacing"`
	Interact          *bool                `yaml:"interact"`
	MiddleClickClose  *bool                `yaml:"middle_click_close"`
	InactiveAlpha     *float64             `yaml:"inactive_alpha"`
	AllowZoom         *bool                `yaml:"allow_zoom"`
	ShowMinimized     *bool                `yaml:"show_minimized"`
	ChildScaleCeiling *float64             `yaml:"child_scale_ceiling"`
	FrameRate         *int                 `yaml:"frame_rate"`
	Easing            *string              `yaml:"easing"`
	ToggleHotkey      *string              `yaml:"toggle_hotkey"`
	ToggleAllHotkey   *string              `yaml:"toggle_all_hotkey"`
	WorkspaceHotkeys  *RawWorkspaceHotkeys `yaml:"workspace_hotkeys"`
	LogLevel          *string              `yaml:"log_level"`
	Display           *string              `yaml:"display"`
	XAuthority        *string              `yaml:"xauthority"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Duration != nil {
		out.Duration = overlay.Duration
	}
	if overlay.Spacing != nil {
		out.Spacing = overlay.Spacing
	}
	if overlay.Interact != nil {
		out.Interact = overlay.Interact
	}
	if overlay.MiddleClickClose != nil {
		out.MiddleClickClose = overlay.MiddleClickClose
	}
	if overlay.InactiveAlpha != nil {
		out.InactiveAlpha = overlay.InactiveAlpha
	}
	if overlay.AllowZoom != nil {
		out.AllowZoom = overlay.AllowZoom
	}
	if overlay.ShowMinimized != nil {
		out.ShowMinimized = overlay.ShowMinimized
	}
	if overlay.ChildScaleCeiling != nil {
		out.ChildScaleCeiling = overlay.ChildScaleCeiling
	}
	if overlay.FrameRate != nil {
		out.FrameRate = overlay.FrameRate
	}
	if overlay.Easing != nil {
		out.Easing = overlay.Easing
	}
	if overlay.ToggleHotkey != nil {
		out.ToggleHotkey = overlay.ToggleHotkey
	}
	if overlay.ToggleAllHotkey != nil {
		out.ToggleAllHotkey = overlay.ToggleAllHotkey
	}
	if overlay.WorkspaceHotkeys != nil {
		base := RawWorkspaceHotkeys{}
		if out.WorkspaceHotkeys != nil {
			base = *out.WorkspaceHotkeys
		}
		merged := mergeRawWorkspaceHotkeys(base, *overlay.WorkspaceHotkeys)
		out.WorkspaceHotkeys = &merged
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}

	return out
}

func mergeRawWorkspaceHotkeys(base RawWorkspaceHotkeys, overlay RawWorkspaceHotkeys) RawWorkspaceHotkeys {
	out := base
	if overlay.Left != nil {
		out.Left = overlay.Left
	}
	if overlay.Right != nil {
		out.Right = overlay.Right
	}
	if overlay.Up != nil {
		out.Up = overlay.Up
	}
	if overlay.Down != nil {
		out.Down = overlay.Down
	}
	return out
}
