package overview

import (
	"time"

	"github.com/1broseidon/winscale/internal/anim"
	"github.com/1broseidon/winscale/internal/config"
	"github.com/1broseidon/winscale/internal/tiling"
)

// Options control layout, animation and input behaviour.
type Options struct {
	Duration          time.Duration
	Spacing           int
	Interact          bool
	MiddleClickClose  bool
	InactiveAlpha     float64
	AllowZoom         bool
	ShowMinimized     bool
	ChildScaleCeiling float64
	Easing            anim.EasingFunc
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return Options{
		Duration:          750 * time.Millisecond,
		Spacing:           50,
		InactiveAlpha:     0.5,
		ShowMinimized:     true,
		ChildScaleCeiling: 1.0,
		Easing:            anim.EaseSmoothstep,
	}
}

// OptionsFromConfig converts a validated configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	easing, err := anim.EasingByName(cfg.Easing)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Duration:          time.Duration(cfg.Duration) * time.Millisecond,
		Spacing:           cfg.Spacing,
		Interact:          cfg.Interact,
		MiddleClickClose:  cfg.MiddleClickClose,
		InactiveAlpha:     cfg.InactiveAlpha,
		AllowZoom:         cfg.AllowZoom,
		ShowMinimized:     cfg.ShowMinimized,
		ChildScaleCeiling: cfg.ChildScaleCeiling,
		Easing:            easing,
	}, nil
}

func (o Options) layout() tiling.Options {
	return tiling.Options{
		Spacing:           o.Spacing,
		AllowZoom:         o.AllowZoom,
		ChildScaleCeiling: o.ChildScaleCeiling,
	}
}
