package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the top-level keys plus workspace_hotkeys.<direction>,
// for example:
//
//	duration
//	inactive_alpha
//	toggle_hotkey
//	workspace_hotkeys
//	workspace_hotkeys.left
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts, in display order.
func Paths() []string {
	return []string{
		"duration",
		"spacing",
		"interact",
		"middle_click_close",
		"inactive_alpha",
		"allow_zoom",
		"show_minimized",
		"child_scale_ceiling",
		"frame_rate",
		"easing",
		"toggle_hotkey",
		"toggle_all_hotkey",
		"workspace_hotkeys.left",
		"workspace_hotkeys.right",
		"workspace_hotkeys.up",
		"workspace_hotkeys.down",
		"log_level",
		"display",
		"xauthority",
	}
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] == "workspace_hotkeys" {
		return lookupWorkspaceHotkey(cfg.WorkspaceHotkeys, path, parts[1:])
	}
	if len(parts) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	switch parts[0] {
	case "duration":
		return cfg.Duration, nil
	case "spacing":
		return cfg.Spacing, nil
	case "interact":
		return cfg.Interact, nil
	case "middle_click_close":
		return cfg.MiddleClickClose, nil
	case "inactive_alpha":
		return cfg.InactiveAlpha, nil
	case "allow_zoom":
		return cfg.AllowZoom, nil
	case "show_minimized":
		return cfg.ShowMinimized, nil
	case "child_scale_ceiling":
		return cfg.ChildScaleCeiling, nil
	case "frame_rate":
		return cfg.FrameRate, nil
	case "easing":
		return cfg.Easing, nil
	case "toggle_hotkey":
		return cfg.ToggleHotkey, nil
	case "toggle_all_hotkey":
		return cfg.ToggleAllHotkey, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

func lookupWorkspaceHotkey(keys WorkspaceHotkeys, path string, rest []string) (any, error) {
	if len(rest) == 0 {
		return keys, nil
	}
	if len(rest) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch rest[0] {
	case "left":
		return keys.Left, nil
	case "right":
		return keys.Right, nil
	case "up":
		return keys.Up, nil
	case "down":
		return keys.Down, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
