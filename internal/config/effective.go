package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw values over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	override(&cfg.Duration, raw.Duration)
	override(&cfg.Spacing, raw.Spacing)
	override(&cfg.Interact, raw.Interact)
	override(&cfg.MiddleClickClose, raw.MiddleClickClose)
	override(&cfg.InactiveAlpha, raw.InactiveAlpha)
	override(&cfg.AllowZoom, raw.AllowZoom)
	override(&cfg.ShowMinimized, raw.ShowMinimized)
	override(&cfg.ChildScaleCeiling, raw.ChildScaleCeiling)
	override(&cfg.FrameRate, raw.FrameRate)
	override(&cfg.Easing, raw.Easing)
	override(&cfg.ToggleHotkey, raw.ToggleHotkey)
	override(&cfg.ToggleAllHotkey, raw.ToggleAllHotkey)
	override(&cfg.LogLevel, raw.LogLevel)
	override(&cfg.Display, raw.Display)
	override(&cfg.XAuthority, raw.XAuthority)

	if raw.WorkspaceHotkeys != nil {
		override(&cfg.WorkspaceHotkeys.Left, raw.WorkspaceHotkeys.Left)
		override(&cfg.WorkspaceHotkeys.Right, raw.WorkspaceHotkeys.Right)
		override(&cfg.WorkspaceHotkeys.Up, raw.WorkspaceHotkeys.Up)
		override(&cfg.WorkspaceHotkeys.Down, raw.WorkspaceHotkeys.Down)
	}

	if raw.Duration != nil && *raw.Duration > 60000 {
		return nil, &ValidationError{Path: "duration", Err: fmt.Errorf("duration must be <= 60000 ms")}
	}

	return cfg, nil
}

func override[T any](dst *T, p *T) {
	if p != nil {
		*dst = *p
	}
}
