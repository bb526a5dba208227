package overview

import (
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/winscale/internal/platform"
)

// Manager keeps one Controller per output and routes actions to the active
// output.
type Manager struct {
	backend     platform.Backend
	opts        Options
	logger      *slog.Logger
	controllers map[string]*Controller
}

// NewManager creates a manager over backend. Controllers are created on
// first use.
func NewManager(backend platform.Backend, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:     backend,
		opts:        opts,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller for output, creating it if needed.
func (m *Manager) Controller(output platform.Output) *Controller {
	name := output.Name()
	if c, ok := m.controllers[name]; ok && c.output == output {
		return c
	} else if ok {
		// the output was re-created, e.g. after a monitor hotplug
		c.Finalize()
	}
	c := NewController(output, m.opts, m.logger.With("output", name))
	m.controllers[name] = c
	return c
}

func (m *Manager) active() (*Controller, bool) {
	output, err := m.backend.ActiveOutput()
	if err != nil {
		m.logger.Warn("overview: no active output", "error", err)
		return nil, false
	}
	return m.Controller(output), true
}

// Toggle toggles the overview on the active output.
func (m *Manager) Toggle(scope Scope) bool {
	c, ok := m.active()
	if !ok {
		return false
	}
	return c.Toggle(scope)
}

// SwitchWorkspace forwards a workspace switch to the active output.
func (m *Manager) SwitchWorkspace(dx, dy int) bool {
	c, ok := m.active()
	if !ok {
		return false
	}
	return c.SwitchWorkspace(dx, dy)
}

// Tick advances every controller and presents outputs that need it. It
// reports whether another frame is needed.
func (m *Manager) Tick(dt time.Duration) bool {
	more := false
	for _, c := range m.sorted() {
		if !c.NeedsFrame() {
			continue
		}
		if c.Tick(dt) {
			more = true
		}
		if p, ok := c.output.(platform.Presenter); ok {
			if err := p.Present(); err != nil {
				m.logger.Warn("overview: present failed", "output", c.output.Name(), "error", err)
			}
		}
	}
	return more
}

// NeedsFrame reports whether any controller needs Tick.
func (m *Manager) NeedsFrame() bool {
	for _, c := range m.controllers {
		if c.NeedsFrame() {
			return true
		}
	}
	return false
}

// UpdateOptions applies opts to every controller and to future ones.
func (m *Manager) UpdateOptions(opts Options) {
	m.opts = opts
	for _, c := range m.controllers {
		c.UpdateOptions(opts)
	}
}

// Status reports every known controller, ordered by output name. The active
// output is included even before its first toggle.
func (m *Manager) Status() []Status {
	if _, ok := m.active(); !ok && len(m.controllers) == 0 {
		return nil
	}
	out := make([]Status, 0, len(m.controllers))
	for _, c := range m.sorted() {
		out = append(out, c.Status())
	}
	return out
}

// Shutdown finalizes every controller.
func (m *Manager) Shutdown() {
	for _, c := range m.sorted() {
		c.Finalize()
	}
}

func (m *Manager) sorted() []*Controller {
	names := make([]string, 0, len(m.controllers))
	for name := range m.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Controller, len(names))
	for i, name := range names {
		out[i] = m.controllers[name]
	}
	return out
}
