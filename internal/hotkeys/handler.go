package hotkeys

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/1broseidon/winscale/internal/config"
	"github.com/1broseidon/winscale/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Overview is the set of actions hotkeys can trigger.
type Overview interface {
	ToggleCurrent() bool
	ToggleAll() bool
	SwitchWorkspace(dx, dy int) bool
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// keyFilterSetter is implemented by backends that grab the keyboard and can
// hand matching key presses back to the hotkey handler.
type keyFilterSetter interface {
	SetKeyFilter(fn func(state uint16, detail xproto.Keycode) bool)
}

type binding struct {
	keys     string
	callback func()
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	overview Overview
	bindings []binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend platform.Backend, overview Overview) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	h := &Handler{
		xu:       xu,
		root:     root,
		overview: overview,
	}
	if setter, ok := backend.(keyFilterSetter); ok {
		setter.SetKeyFilter(h.dispatchGrabbed)
	}
	return h
}

// RegisterConfig binds every hotkey named in cfg. Empty sequences are
// skipped.
func (h *Handler) RegisterConfig(cfg *config.Config) error {
	if err := h.RegisterFunc(cfg.ToggleHotkey, func() {
		log.Println("Overview hotkey triggered")
		h.overview.ToggleCurrent()
	}); err != nil {
		return fmt.Errorf("toggle hotkey %q: %w", cfg.ToggleHotkey, err)
	}

	if strings.TrimSpace(cfg.ToggleAllHotkey) != "" {
		if err := h.RegisterFunc(cfg.ToggleAllHotkey, func() {
			log.Println("Overview (all workspaces) hotkey triggered")
			h.overview.ToggleAll()
		}); err != nil {
			return fmt.Errorf("toggle_all hotkey %q: %w", cfg.ToggleAllHotkey, err)
		}
	}

	moves := []struct {
		keys   string
		dx, dy int
	}{
		{cfg.WorkspaceHotkeys.Left, -1, 0},
		{cfg.WorkspaceHotkeys.Right, 1, 0},
		{cfg.WorkspaceHotkeys.Up, 0, -1},
		{cfg.WorkspaceHotkeys.Down, 0, 1},
	}
	for _, m := range moves {
		if strings.TrimSpace(m.keys) == "" {
			continue
		}
		dx, dy := m.dx, m.dy
		if err := h.RegisterFunc(m.keys, func() {
			h.overview.SwitchWorkspace(dx, dy)
		}); err != nil {
			log.Printf("Warning: failed to register workspace hotkey %q: %v", m.keys, err)
		}
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys require an X11 backend")
	}
	if err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true); err != nil {
		return err
	}
	h.bindings = append(h.bindings, binding{keys: keySequence, callback: callback})
	return nil
}

// Unregister drops every binding, e.g. before re-registering after a reload.
func (h *Handler) Unregister() {
	if h.xu != nil {
		keybind.Detach(h.xu, h.root)
	}
	h.bindings = nil
}

// dispatchGrabbed runs the callback of a registered hotkey for a key press
// received under a keyboard grab. The root grab does not fire in that case.
func (h *Handler) dispatchGrabbed(state uint16, detail xproto.Keycode) bool {
	if h.xu == nil {
		return false
	}
	for _, b := range h.bindings {
		mods, codes, err := keybind.ParseString(h.xu, b.keys)
		if err != nil {
			continue
		}
		if keyMatches(mods, codes, state, detail) {
			b.callback()
			return true
		}
	}
	return false
}

// keyMatches compares a key event against a parsed binding, ignoring lock
// modifiers.
func keyMatches(mods uint16, codes []xproto.Keycode, state uint16, detail xproto.Keycode) bool {
	state, detail = keybind.DeduceKeyInfo(state, detail)
	if state != mods {
		return false
	}
	for _, code := range codes {
		if code == detail {
			return true
		}
	}
	return false
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	if xu == nil {
		return 0
	}
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
