package mcp

import (
	"context"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/winscale/internal/ipc"
	"github.com/1broseidon/winscale/internal/overview"
)

type fakeClient struct {
	handled  bool
	err      error
	toggles  []bool
	switches [][2]int
	reloads  int
	status   *ipc.StatusData
}

func (f *fakeClient) Toggle(all bool) (bool, error) {
	f.toggles = append(f.toggles, all)
	return f.handled, f.err
}

func (f *fakeClient) SwitchWorkspace(dx, dy int) (bool, error) {
	f.switches = append(f.switches, [2]int{dx, dy})
	return f.handled, f.err
}

func (f *fakeClient) Reload() error {
	f.reloads++
	return f.err
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func TestToolHandlers(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		handled: true,
		status: &ipc.StatusData{
			DaemonRunning: true,
			UptimeSeconds: 12,
			Outputs: []overview.Status{
				{Output: "DP-1", Phase: "inactive"},
				{Output: "eDP-1", Phase: "active", Active: true},
			},
		},
	}
	s := NewServer(client)

	_, out, err := s.handleToggle(ctx, nil, ToggleOverviewInput{All: true})
	require.NoError(t, err)
	require.True(t, out.Handled)
	require.Equal(t, []bool{true}, client.toggles)

	_, out, err = s.handleSwitchWorkspace(ctx, nil, SwitchWorkspaceInput{DX: -1})
	require.NoError(t, err)
	require.True(t, out.Handled)
	require.Equal(t, [][2]int{{-1, 0}}, client.switches)

	_, status, err := s.handleStatus(ctx, nil, StatusInput{})
	require.NoError(t, err)
	require.True(t, status.Active)
	require.Equal(t, int64(12), status.UptimeSeconds)
	require.Len(t, status.Outputs, 2)

	_, out, err = s.handleReload(ctx, nil, ReloadInput{})
	require.NoError(t, err)
	require.True(t, out.Handled)
	require.Equal(t, 1, client.reloads)
}

func TestToolHandlersReportUnhandledAndErrors(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	s := NewServer(client)

	_, out, err := s.handleToggle(ctx, nil, ToggleOverviewInput{})
	require.NoError(t, err)
	require.False(t, out.Handled)
	require.Equal(t, "no windows to show", out.Message)

	_, out, err = s.handleSwitchWorkspace(ctx, nil, SwitchWorkspaceInput{DX: 1})
	require.NoError(t, err)
	require.Equal(t, "overview is not active", out.Message)

	client.err = ipc.ErrDaemonNotRunning
	_, _, err = s.handleStatus(ctx, nil, StatusInput{})
	require.ErrorIs(t, err, ipc.ErrDaemonNotRunning)

	_, _, err = s.handleReload(ctx, nil, ReloadInput{})
	require.ErrorIs(t, err, ipc.ErrDaemonNotRunning)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	fake := &fakeClient{handled: true}
	s := NewServer(fake)

	serverT, clientT := mcpsdk.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverT)
	require.NoError(t, err)
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"toggle_overview", "overview_status", "switch_workspace", "reload_config"}, names)

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "toggle_overview",
		Arguments: map[string]any{"all": true},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, []bool{true}, fake.toggles)

	fake.err = errors.New("daemon error: boom")
	res, err = cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: "reload_config"})
	require.NoError(t, err)
	require.True(t, res.IsError)
}
