package mcp

import "github.com/1broseidon/winscale/internal/overview"

// ToggleOverviewInput is the input for the toggle_overview tool.
type ToggleOverviewInput struct {
	All bool `json:"all,omitempty" jsonschema:"Show windows from every workspace instead of only the current one"`
}

// ActionOutput reports whether the daemon acted on a request.
type ActionOutput struct {
	Handled bool   `json:"handled"`
	Message string `json:"message"`
}

// StatusInput is the (empty) input for the overview_status tool.
type StatusInput struct{}

// StatusOutput is the output for the overview_status tool.
type StatusOutput struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	ConfigPath    string            `json:"config_path,omitempty"`
	Active        bool              `json:"active"`
	Outputs       []overview.Status `json:"outputs"`
}

// SwitchWorkspaceInput is the input for the switch_workspace tool.
type SwitchWorkspaceInput struct {
	DX int `json:"dx" jsonschema:"Columns to move; negative moves left"`
	DY int `json:"dy" jsonschema:"Rows to move; negative moves up"`
}

// ReloadInput is the (empty) input for the reload_config tool.
type ReloadInput struct{}
