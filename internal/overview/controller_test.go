package overview

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/tiling"
)

var screen = platform.Rect{X: 0, Y: 0, Width: 1000, Height: 800}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Duration = 100 * time.Millisecond
	opts.Spacing = 10
	return opts
}

// newTestOutput returns a 3x1 workspace grid with windows 1..n on the
// current workspace.
func newTestOutput(n int) *platform.MemoryOutput {
	out := platform.NewMemoryOutput("eDP-1", screen, 3, 1)
	for i := 1; i <= n; i++ {
		out.AddWindow(window(platform.WindowID(i), 100, 100))
	}
	return out
}

func window(id platform.WindowID, x, y int) platform.Window {
	return platform.Window{
		ID:       id,
		Title:    "window",
		Mapped:   true,
		Geometry: platform.Rect{X: x, Y: y, Width: 400, Height: 300},
	}
}

func settle(c *Controller) {
	c.Tick(10 * time.Second)
}

func renderedCenter(t *testing.T, out *platform.MemoryOutput, id platform.WindowID) (int, int) {
	t.Helper()
	r, _, ok := out.Rendered(id)
	require.True(t, ok)
	return r.Center()
}

func click(out *platform.MemoryOutput, button platform.Button, x, y int) {
	out.SendButton(platform.ButtonEvent{Button: button, Pressed: true, X: x, Y: y})
	out.SendButton(platform.ButtonEvent{Button: button, Pressed: false, X: x, Y: y})
}

func key(out *platform.MemoryOutput, k platform.Key) {
	out.SendKey(platform.KeyEvent{Key: k, Pressed: true})
}

func TestToggleActivatesGrid(t *testing.T) {
	out := newTestOutput(5)
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	s := c.Session()
	require.True(t, s.Active)
	require.Equal(t, PhaseActivating, s.Phase)
	require.Equal(t, tiling.Grid{Rows: 2, Cols: 3, LastRowCols: 2}, s.Grid)
	require.Len(t, s.Entries, 5)
	require.True(t, out.Grabbed())
	require.Equal(t, FeatureName, out.ActiveFeature())
	require.NotNil(t, out.InputHandler())

	for id := platform.WindowID(1); id <= 5; id++ {
		require.Equal(t, 1, out.TransformCount(id))
	}

	settle(c)
	require.Equal(t, PhaseActive, c.Session().Phase)

	area := tiling.Rect{X: screen.X, Y: screen.Y, Width: screen.Width, Height: screen.Height}
	for id, e := range c.Session().Entries {
		cell := s.Grid.CellRect(area, 10, e.Cell.Row, e.Cell.Col)
		r, _, ok := out.Rendered(id)
		require.True(t, ok)
		require.GreaterOrEqual(t, r.X, cell.X-1, "window %d", id)
		require.GreaterOrEqual(t, r.Y, cell.Y-1, "window %d", id)
		require.LessOrEqual(t, r.X+r.Width, cell.X+cell.Width+1, "window %d", id)
		require.LessOrEqual(t, r.Y+r.Height, cell.Y+cell.Height+1, "window %d", id)
		require.LessOrEqual(t, e.Transform.ScaleX.Current(), 1.0)
	}
}

func TestToggleTwiceReturnsToInactive(t *testing.T) {
	out := newTestOutput(3)
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.False(t, c.Active())
	require.Equal(t, PhaseDeactivating, c.Session().Phase)
	require.False(t, out.Grabbed())
	require.Equal(t, 1, out.UngrabCalls)

	settle(c)
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Empty(t, c.Session().Entries)
	require.Equal(t, "", out.ActiveFeature())
	require.Nil(t, out.InputHandler())
	require.Equal(t, 1, out.UngrabCalls)
	for id := platform.WindowID(1); id <= 3; id++ {
		require.Equal(t, 0, out.TransformCount(id))
	}
}

func TestToggleTwiceWithoutAnimation(t *testing.T) {
	out := newTestOutput(2)
	opts := testOptions()
	opts.Duration = 0
	c := NewController(out, opts, testLogger())

	require.True(t, c.Toggle(ScopeAllWorkspaces))
	require.True(t, c.Toggle(ScopeAllWorkspaces))
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 0, out.TransformCount(1))
	require.Equal(t, 1, out.UngrabCalls)
}

func TestRoundTripRestoresIdentity(t *testing.T) {
	out := newTestOutput(4)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	handles := make(map[platform.WindowID]*platform.Transform)
	for id := platform.WindowID(1); id <= 4; id++ {
		h, ok := out.Transform(id, TransformName)
		require.True(t, ok)
		require.False(t, h.IsIdentity())
		handles[id] = h
	}

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.True(t, c.Tick(50*time.Millisecond))
	require.False(t, handles[1].IsIdentity())

	require.False(t, c.Tick(time.Second))
	for id, h := range handles {
		require.Equal(t, platform.Identity(), *h, "window %d", id)
		require.Equal(t, 0, out.TransformCount(id))
	}
}

func TestAddIsIdempotent(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	e, created := c.add(1, 0)
	require.False(t, created)
	require.Same(t, c.session.Entries[1], e)
	require.Equal(t, 1, out.TransformCount(1))

	require.NoError(t, c.relayout())
	require.Equal(t, 1, out.TransformCount(1))
	require.Equal(t, 2, out.Count(platform.EventGeometryChanged))
}

func TestEmptyCandidatesLeaveStateUntouched(t *testing.T) {
	out := platform.NewMemoryOutput("eDP-1", screen, 3, 1)
	// only a window on the next workspace
	out.AddWindow(window(1, 1100, 100))
	c := NewController(out, testOptions(), testLogger())

	require.False(t, c.Toggle(ScopeCurrentWorkspace))
	s := c.Session()
	require.Equal(t, PhaseInactive, s.Phase)
	require.False(t, s.Active)
	require.Empty(t, s.Entries)
	require.Equal(t, 0, out.GrabCalls)
	require.Equal(t, "", out.ActiveFeature())

	empty := platform.NewMemoryOutput("HDMI-1", screen, 1, 1)
	c = NewController(empty, testOptions(), testLogger())
	require.False(t, c.Toggle(ScopeAllWorkspaces))
	require.Equal(t, ScopeCurrentWorkspace, c.Session().Scope)
}

func TestActivationDenied(t *testing.T) {
	t.Run("grab denied", func(t *testing.T) {
		out := newTestOutput(2)
		out.DenyGrab = true
		c := NewController(out, testOptions(), testLogger())

		require.False(t, c.Toggle(ScopeCurrentWorkspace))
		require.False(t, c.Active())
		require.Equal(t, "", out.ActiveFeature())
		require.Equal(t, 0, out.TransformCount(1))
	})

	t.Run("output busy", func(t *testing.T) {
		out := newTestOutput(2)
		require.True(t, out.Activate("expo"))
		c := NewController(out, testOptions(), testLogger())

		require.False(t, c.Toggle(ScopeCurrentWorkspace))
		require.Equal(t, 0, out.GrabCalls)
		require.Equal(t, "expo", out.ActiveFeature())
	})

	t.Run("interactive mode skips grab", func(t *testing.T) {
		out := newTestOutput(2)
		out.DenyGrab = true
		opts := testOptions()
		opts.Interact = true
		c := NewController(out, opts, testLogger())

		require.True(t, c.Toggle(ScopeCurrentWorkspace))
		require.False(t, out.Grabbed())
		require.True(t, c.Toggle(ScopeCurrentWorkspace))
		require.Equal(t, 0, out.UngrabCalls)
	})
}

func TestFinalizeWithoutSession(t *testing.T) {
	out := newTestOutput(1)
	c := NewController(out, testOptions(), testLogger())

	c.Finalize()
	c.Finalize()
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 0, out.UngrabCalls)
	require.False(t, c.Tick(0))
}

func TestPointerReleaseOverOtherWindowCancels(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(1), focused)

	ax, ay := renderedCenter(t, out, 1)
	bx, by := renderedCenter(t, out, 2)
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: true, X: bx, Y: by})
	require.Equal(t, platform.WindowID(2), c.Session().LastPressed)
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: false, X: ax, Y: ay})

	s := c.Session()
	require.True(t, s.Active)
	require.Equal(t, PhaseActive, s.Phase)
	require.Equal(t, platform.WindowID(0), s.LastPressed)
	require.Equal(t, platform.WindowID(1), s.CurrentFocus)
	focused, _ = out.Focused()
	require.Equal(t, platform.WindowID(1), focused)
	require.True(t, out.Grabbed())
}

func TestPointerReleaseOverNothingCancels(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: true, X: x, Y: y})
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: false, X: 1, Y: 1})

	require.True(t, c.Active())
	require.Equal(t, platform.WindowID(0), c.Session().LastPressed)
}

func TestPointerSelectEndsOverview(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	click(out, platform.ButtonLeft, x, y)

	require.False(t, c.Active())
	require.Equal(t, 1, out.UngrabCalls)
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(2), focused)

	settle(c)
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 1, out.UngrabCalls)
	require.Equal(t, "", out.ActiveFeature())
}

func TestPointerSelectInteractiveKeepsOverview(t *testing.T) {
	out := newTestOutput(2)
	opts := testOptions()
	opts.Interact = true
	c := NewController(out, opts, testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	require.True(t, out.Passthrough())

	x, y := renderedCenter(t, out, 2)
	click(out, platform.ButtonLeft, x, y)

	require.True(t, c.Active())
	require.Equal(t, platform.WindowID(2), c.Session().CurrentFocus)
	require.Equal(t, 1.0, c.Session().Entries[2].Transform.Opacity.Target())
	require.Equal(t, 0.5, c.Session().Entries[1].Transform.Opacity.Target())
}

func TestMiddleClickClose(t *testing.T) {
	out := newTestOutput(3)
	opts := testOptions()
	opts.MiddleClickClose = true
	c := NewController(out, opts, testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	click(out, platform.ButtonMiddle, x, y)

	require.Equal(t, []platform.WindowID{2}, out.Closed)
	s := c.Session()
	require.True(t, s.Active)
	require.NotContains(t, s.Entries, platform.WindowID(2))
	require.Equal(t, tiling.Grid{Rows: 1, Cols: 2, LastRowCols: 2}, s.Grid)
}

func TestReleaseOfOtherButtonCancels(t *testing.T) {
	out := newTestOutput(2)
	opts := testOptions()
	opts.MiddleClickClose = true
	c := NewController(out, opts, testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: true, X: x, Y: y})
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonMiddle, Pressed: false, X: x, Y: y})

	require.Empty(t, out.Closed)
	require.True(t, c.Active())
	require.Equal(t, platform.WindowID(0), c.Session().LastPressed)

	out.SendButton(platform.ButtonEvent{Button: platform.ButtonMiddle, Pressed: true, X: x, Y: y})
	out.SendButton(platform.ButtonEvent{Button: platform.ButtonLeft, Pressed: false, X: x, Y: y})
	require.True(t, c.Active())
	require.Equal(t, platform.WindowID(1), c.Session().CurrentFocus)
}

func TestMiddleClickIgnoredWhenDisabled(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	click(out, platform.ButtonMiddle, x, y)

	require.Empty(t, out.Closed)
	require.True(t, c.Active())
}

func TestTouchTracksFirstContactOnly(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	x, y := renderedCenter(t, out, 2)
	out.SendTouch(platform.TouchEvent{ID: 1, Down: true, X: x, Y: y})
	out.SendTouch(platform.TouchEvent{ID: 1, Down: false, X: x, Y: y})
	require.True(t, c.Active())
	require.Equal(t, platform.WindowID(1), c.Session().CurrentFocus)

	out.SendTouch(platform.TouchEvent{ID: 0, Down: true, X: x, Y: y})
	out.SendTouch(platform.TouchEvent{ID: 0, Down: false, X: x, Y: y})
	require.False(t, c.Active())
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(2), focused)
}

func TestKeyboardDownIntoShortRow(t *testing.T) {
	out := newTestOutput(5)
	require.NoError(t, out.Focus(3))
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	s := c.Session()
	require.Equal(t, platform.WindowID(3), s.CurrentFocus)
	require.Equal(t, Cell{Row: 0, Col: 2}, s.Entries[3].Cell)

	key(out, platform.KeyDown)

	s = c.Session()
	require.Equal(t, Cell{Row: 1, Col: 1}, s.Entries[5].Cell)
	require.Equal(t, platform.WindowID(5), s.CurrentFocus)
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(5), focused)
	require.Equal(t, 1.0, s.Entries[5].Transform.Opacity.Target())
	require.Equal(t, 0.5, s.Entries[3].Transform.Opacity.Target())
}

func TestModifierSuppressesNavigation(t *testing.T) {
	out := newTestOutput(3)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	out.SendKey(platform.KeyEvent{Key: platform.KeyRight, Pressed: true, Modifiers: platform.ModShift})
	require.Equal(t, platform.WindowID(1), c.Session().CurrentFocus)

	out.SendKey(platform.KeyEvent{Key: platform.KeyRight, Pressed: false})
	require.Equal(t, platform.WindowID(1), c.Session().CurrentFocus)

	key(out, platform.KeyRight)
	require.Equal(t, platform.WindowID(2), c.Session().CurrentFocus)
}

func TestEnterDefersUngrabUntilRelease(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	key(out, platform.KeyRight)
	key(out, platform.KeyEnter)

	s := c.Session()
	require.False(t, s.Active)
	require.True(t, s.InputReleasePending)
	require.True(t, out.Grabbed())
	require.Equal(t, 0, out.UngrabCalls)
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(2), focused)

	out.SendKey(platform.KeyEvent{Key: platform.KeyEnter, Pressed: false})
	require.False(t, out.Grabbed())
	require.Equal(t, 1, out.UngrabCalls)
	require.False(t, c.Session().InputReleasePending)

	settle(c)
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 1, out.UngrabCalls)
	require.Equal(t, "", out.ActiveFeature())
}

func TestEnterSwitchesToWindowWorkspace(t *testing.T) {
	out := platform.NewMemoryOutput("eDP-1", screen, 3, 1)
	out.AddWindow(window(1, 100, 100))
	out.AddWindow(window(2, 1100, 100))
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeAllWorkspaces))
	require.Len(t, c.Session().Entries, 2)

	key(out, platform.KeyRight)
	key(out, platform.KeyEnter)

	require.Equal(t, platform.Workspace{X: 1, Y: 0}, out.CurrentWorkspace())
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(2), focused)
}

func TestEscapeRestoresWorkspaceAndFocus(t *testing.T) {
	out := platform.NewMemoryOutput("eDP-1", screen, 3, 1)
	out.AddWindow(window(1, 100, 100))
	out.AddWindow(window(2, 1100, 100))
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeAllWorkspaces))
	require.True(t, c.SwitchWorkspace(1, 0))
	require.Equal(t, platform.Workspace{X: 1, Y: 0}, out.CurrentWorkspace())

	key(out, platform.KeyRight)
	require.Equal(t, platform.WindowID(2), c.Session().CurrentFocus)

	key(out, platform.KeyEscape)

	require.False(t, c.Active())
	require.Equal(t, platform.Workspace{}, out.CurrentWorkspace())
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(1), focused)
	require.Equal(t, platform.WindowID(0), c.Session().InitialFocus)
}

func TestEscapeWhileFocusOutsideOverview(t *testing.T) {
	out := newTestOutput(2)
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	// a window mapped on the next workspace takes the focus
	out.AddWindow(window(9, 1100, 100))
	require.NoError(t, out.Focus(9))
	require.NotContains(t, c.Session().Entries, platform.WindowID(9))

	key(out, platform.KeyEscape)
	require.False(t, c.Active())
	require.True(t, c.Session().InputReleasePending)
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(1), focused)

	out.SendKey(platform.KeyEvent{Key: platform.KeyEscape, Pressed: false})
	require.False(t, out.Grabbed())
	settle(c)
	require.Equal(t, PhaseInactive, c.Session().Phase)
}

func TestNavigationWhileFocusOutsideOverview(t *testing.T) {
	out := newTestOutput(3)
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	out.AddWindow(window(9, 1100, 100))
	require.NoError(t, out.Focus(9))

	key(out, platform.KeyRight)
	require.True(t, c.Active())
	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(2), focused)
	require.Equal(t, platform.WindowID(2), c.Session().CurrentFocus)
}

func TestNavigationIntoEmptyCellFallsBackToFirstCandidate(t *testing.T) {
	out := newTestOutput(2)
	require.NoError(t, out.Focus(2))
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.Equal(t, Cell{Row: 0, Col: 1}, c.Session().Entries[2].Cell)

	// a grid left over from a larger window set points at a cell no
	// window occupies
	c.session.Grid = tiling.Grid{Rows: 2, Cols: 3, LastRowCols: 3}
	key(out, platform.KeyDown)

	focused, _ := out.Focused()
	require.Equal(t, platform.WindowID(1), focused)
	require.Equal(t, platform.WindowID(1), c.windowInCell(Cell{Row: 7, Col: 9}))
}

func TestKeyWhileInactiveFinalizes(t *testing.T) {
	out := newTestOutput(2)
	opts := testOptions()
	opts.Duration = 0
	c := NewController(out, opts, testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	key(out, platform.KeyEscape)
	require.Equal(t, PhaseDeactivating, c.Session().Phase)
	require.True(t, out.Grabbed())

	out.SendKey(platform.KeyEvent{Key: platform.KeyEscape, Pressed: false})
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 1, out.UngrabCalls)
	require.Equal(t, "", out.ActiveFeature())
}

func TestScopeSwitchInPlace(t *testing.T) {
	out := platform.NewMemoryOutput("eDP-1", screen, 3, 1)
	out.AddWindow(window(1, 100, 100))
	out.AddWindow(window(2, 300, 200))
	out.AddWindow(window(3, 1100, 100))
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.Len(t, c.Session().Entries, 2)

	require.True(t, c.Toggle(ScopeAllWorkspaces))
	s := c.Session()
	require.True(t, s.Active)
	require.Equal(t, ScopeAllWorkspaces, s.Scope)
	require.Len(t, s.Entries, 3)
	require.Equal(t, 1, out.GrabCalls)

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	s = c.Session()
	require.True(t, s.Active)
	require.False(t, s.Entries[3].InGrid)
	require.Equal(t, 0.0, s.Entries[3].Transform.TranslateX.Target())
	require.Equal(t, tiling.Grid{Rows: 1, Cols: 2, LastRowCols: 2}, s.Grid)

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.False(t, c.Active())
}

func TestOtherScopeWithSameWindowsTogglesOff(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.True(t, c.Toggle(ScopeAllWorkspaces))
	require.False(t, c.Active())
}

func TestWindowRemovalFinalizesWhenEmpty(t *testing.T) {
	out := newTestOutput(1)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	out.RemoveWindow(1)

	s := c.Session()
	require.Equal(t, PhaseInactive, s.Phase)
	require.Empty(t, s.Entries)
	require.Equal(t, 1, out.UngrabCalls)
	require.Equal(t, "", out.ActiveFeature())
	require.Equal(t, 0, out.Count(platform.EventWindowDetached))
}

func TestWindowAttachedRelayout(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	out.AddWindow(window(3, 200, 200))

	s := c.Session()
	require.Len(t, s.Entries, 3)
	require.Equal(t, tiling.Grid{Rows: 2, Cols: 2, LastRowCols: 1}, s.Grid)
	require.Equal(t, Cell{Row: 1, Col: 0}, s.Entries[3].Cell)
}

func TestGeometryChangeRelayouts(t *testing.T) {
	out := newTestOutput(2)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)
	require.Equal(t, 1.0, c.Session().Entries[1].Transform.ScaleX.Target())

	out.SetGeometry(1, platform.Rect{X: 50, Y: 50, Width: 900, Height: 700})

	e := c.Session().Entries[1]
	require.Less(t, e.Transform.ScaleX.Target(), 0.6)
	require.Greater(t, e.Transform.ScaleX.Target(), 0.0)
	require.True(t, e.Transform.Running())
	require.Equal(t, 1.0, c.Session().Entries[2].Transform.ScaleX.Target())
}

func TestUnmappedWindowLeavesGrid(t *testing.T) {
	out := newTestOutput(3)
	require.NoError(t, out.Focus(2))
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))

	out.Unmap(2)

	s := c.Session()
	require.NotContains(t, s.Entries, platform.WindowID(2))
	require.NotEqual(t, platform.WindowID(2), s.CurrentFocus)
	require.Equal(t, platform.WindowID(0), s.InitialFocus)
	require.Equal(t, 0, out.TransformCount(2))
}

func TestChildStartsFromParentTranslation(t *testing.T) {
	out := newTestOutput(1)
	c := NewController(out, testOptions(), testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)

	parent := c.Session().Entries[1]
	out.AddWindow(platform.Window{
		ID:       10,
		Parent:   1,
		Mapped:   true,
		Geometry: platform.Rect{X: 150, Y: 150, Width: 200, Height: 100},
	})

	child, ok := c.Session().Entries[10]
	require.True(t, ok)
	require.Equal(t, platform.WindowID(1), child.Parent)
	require.Equal(t, parent.Cell, child.Cell)
	require.Equal(t, parent.Transform.TranslateX.Current(), child.Transform.TranslateX.Current())
	require.Equal(t, parent.Transform.TranslateY.Current(), child.Transform.TranslateY.Current())
	require.True(t, child.Transform.Running())
	require.Equal(t, 1, out.TransformCount(10))

	// closing the parent takes the child with it
	out.RemoveWindow(1)
	require.Equal(t, PhaseInactive, c.Session().Phase)
	require.Equal(t, 0, out.TransformCount(10))
}

func TestShowMinimizedPromotesAndDemotes(t *testing.T) {
	out := newTestOutput(1)
	minimized := window(2, 300, 100)
	minimized.Layer = platform.LayerMinimized
	out.AddWindow(minimized)
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.Len(t, c.Session().Entries, 2)
	w, _ := out.Window(2)
	require.False(t, w.Minimized())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	w, _ = out.Window(2)
	require.True(t, w.Minimized())
	w, _ = out.Window(1)
	require.False(t, w.Minimized())
}

func TestSelectedMinimizedWindowStaysRestored(t *testing.T) {
	out := newTestOutput(1)
	minimized := window(2, 300, 100)
	minimized.Layer = platform.LayerMinimized
	out.AddWindow(minimized)
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)
	x, y := renderedCenter(t, out, 2)
	click(out, platform.ButtonLeft, x, y)
	settle(c)

	w, _ := out.Window(2)
	require.False(t, w.Minimized())
	require.Equal(t, PhaseInactive, c.Session().Phase)
}

func TestHiddenMinimizedWindows(t *testing.T) {
	out := newTestOutput(2)
	minimized := window(3, 300, 100)
	minimized.Layer = platform.LayerMinimized
	out.AddWindow(minimized)
	opts := testOptions()
	opts.ShowMinimized = false
	c := NewController(out, opts, testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.Len(t, c.Session().Entries, 2)

	out.SetMinimized(2, true)
	s := c.Session()
	require.NotContains(t, s.Entries, platform.WindowID(2))
	require.Equal(t, tiling.Grid{Rows: 1, Cols: 1, LastRowCols: 1}, s.Grid)

	out.SetMinimized(3, false)
	require.Len(t, c.Session().Entries, 2)
}

func TestDestroyedPromotedWindowIsNotDemoted(t *testing.T) {
	out := newTestOutput(1)
	minimized := window(2, 300, 100)
	minimized.Layer = platform.LayerMinimized
	out.AddWindow(minimized)
	c := NewController(out, testOptions(), testLogger())

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	out.RemoveWindow(2)
	require.Empty(t, c.session.promoted)

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	settle(c)
	require.Equal(t, PhaseInactive, c.Session().Phase)
}

func TestSwitchWorkspacePinsFocus(t *testing.T) {
	out := newTestOutput(2)
	require.NoError(t, out.Focus(1))
	c := NewController(out, testOptions(), testLogger())

	require.False(t, c.SwitchWorkspace(1, 0))

	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.True(t, c.SwitchWorkspace(0, 0))
	require.Empty(t, out.Requests)

	require.True(t, c.SwitchWorkspace(1, 0))
	require.Len(t, out.Requests, 1)
	require.Equal(t, platform.WorkspaceRequest{
		Workspace: platform.Workspace{X: 1},
		Pinned:    []platform.WindowID{1},
	}, out.Requests[0])

	s := c.Session()
	require.True(t, s.Active)
	require.True(t, s.Entries[1].InGrid)
	require.False(t, s.Entries[2].InGrid)

	// outside the grid: consumed, nothing changes
	require.True(t, c.SwitchWorkspace(5, 0))
	require.Equal(t, platform.Workspace{X: 1}, out.CurrentWorkspace())
}

func TestUpdateOptionsTogglesGrab(t *testing.T) {
	out := newTestOutput(2)
	opts := testOptions()
	c := NewController(out, opts, testLogger())
	require.True(t, c.Toggle(ScopeCurrentWorkspace))
	require.False(t, out.Passthrough())

	opts.Interact = true
	c.UpdateOptions(opts)
	require.False(t, out.Grabbed())
	require.Equal(t, 1, out.UngrabCalls)
	require.True(t, out.Passthrough())

	opts.Interact = false
	c.UpdateOptions(opts)
	require.True(t, out.Grabbed())
	require.Equal(t, 2, out.GrabCalls)
	require.False(t, out.Passthrough())

	before := c.Session().Entries[1].Transform.ScaleX.Target()
	opts.Spacing = 200
	c.UpdateOptions(opts)
	require.Less(t, c.Session().Entries[1].Transform.ScaleX.Target(), before)
}

func TestStatus(t *testing.T) {
	out := newTestOutput(3)
	c := NewController(out, testOptions(), testLogger())

	st := c.Status()
	require.Equal(t, "inactive", st.Phase)
	require.Empty(t, st.Windows)

	require.True(t, c.Toggle(ScopeAllWorkspaces))
	st = c.Status()
	require.Equal(t, "eDP-1", st.Output)
	require.Equal(t, "activating", st.Phase)
	require.Equal(t, "all-workspaces", st.Scope)
	require.True(t, st.Active)
	require.Equal(t, 2, st.Rows)
	require.Len(t, st.Windows, 3)
	require.Equal(t, "window", st.Windows[0].Title)
}
