package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winscale/internal/ipc"
)

const (
	ServerName    = "winscale"
	ServerVersion = "0.1.0"
)

// DaemonClient is the part of ipc.Client the tools use.
type DaemonClient interface {
	Toggle(all bool) (bool, error)
	SwitchWorkspace(dx, dy int) (bool, error)
	Reload() error
	GetStatus() (*ipc.StatusData, error)
}

// Server exposes overview control as MCP tools. Every tool forwards to the
// running daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
}

// NewServer creates an MCP server talking to the daemon through client.
func NewServer(client DaemonClient) *Server {
	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t, e.g. an in-memory transport.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_overview",
		Description: "Show or hide the window overview on the active monitor. With all=true windows from every workspace are shown. Toggling while the overview is visible hides it and focuses the selected window.",
	}, s.handleToggle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "overview_status",
		Description: "Report the overview state of each monitor: phase, scope, grid size, focused window and the windows in the grid.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_workspace",
		Description: "Move the visible overview to a neighbouring workspace by (dx, dy). Only has an effect while the overview is shown.",
	}, s.handleSwitchWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Make the daemon re-read its configuration file. The previous configuration stays active when the file is invalid.",
	}, s.handleReload)
}

func (s *Server) handleToggle(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleOverviewInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	handled, err := s.client.Toggle(args.All)
	if err != nil {
		return nil, ActionOutput{}, fmt.Errorf("toggle overview: %w", err)
	}
	out := ActionOutput{Handled: handled, Message: "overview toggled"}
	if !handled {
		out.Message = "no windows to show"
	}
	return nil, out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("overview status: %w", err)
	}
	out := StatusOutput{
		UptimeSeconds: status.UptimeSeconds,
		ConfigPath:    status.ConfigPath,
		Outputs:       status.Outputs,
	}
	for _, o := range status.Outputs {
		if o.Active {
			out.Active = true
		}
	}
	return nil, out, nil
}

func (s *Server) handleSwitchWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchWorkspaceInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	handled, err := s.client.SwitchWorkspace(args.DX, args.DY)
	if err != nil {
		return nil, ActionOutput{}, fmt.Errorf("switch workspace: %w", err)
	}
	out := ActionOutput{Handled: handled, Message: fmt.Sprintf("moved by (%d, %d)", args.DX, args.DY)}
	if !handled {
		out.Message = "overview is not active"
	}
	return nil, out, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.client.Reload(); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("reload config: %w", err)
	}
	return nil, ActionOutput{Handled: true, Message: "configuration reloaded"}, nil
}
