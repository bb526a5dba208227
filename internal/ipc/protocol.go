package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winscale/internal/overview"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandToggle          CommandType = "TOGGLE"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandReload          CommandType = "RELOAD"
	CommandSwitchWorkspace CommandType = "SWITCH_WORKSPACE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// TogglePayload selects the overview scope for TOGGLE.
type TogglePayload struct {
	All bool `json:"all,omitempty"`
}

// SwitchWorkspacePayload is the workspace delta for SWITCH_WORKSPACE.
type SwitchWorkspacePayload struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// ActionData reports whether a TOGGLE or SWITCH_WORKSPACE was handled.
// Toggling with no candidate windows, or switching while inactive, is not.
type ActionData struct {
	Handled bool `json:"handled"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool              `json:"daemon_running"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	ConfigPath    string            `json:"config_path,omitempty"`
	Outputs       []overview.Status `json:"outputs"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}
