package platform

// EventKind identifies a window lifecycle notification.
type EventKind int

const (
	EventWindowAttached EventKind = iota
	EventWindowDetached
	EventWindowMinimized
	EventWindowUnmapped
	EventGeometryChanged
	EventFocusChanged
	EventWorkspaceChanged
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventWindowAttached:
		return "window-attached"
	case EventWindowDetached:
		return "window-detached"
	case EventWindowMinimized:
		return "window-minimized"
	case EventWindowUnmapped:
		return "window-unmapped"
	case EventGeometryChanged:
		return "geometry-changed"
	case EventFocusChanged:
		return "focus-changed"
	case EventWorkspaceChanged:
		return "workspace-changed"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification.
type Event struct {
	Kind   EventKind
	Window WindowID
	// Minimized is set for EventWindowMinimized: true when the window was
	// minimized, false when restored.
	Minimized bool
}

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription struct {
	emitter *Emitter
	kind    EventKind
	window  WindowID
	fn      func(Event)
	active  bool
}

// Unsubscribe removes the handler.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active {
		return
	}
	s.active = false
	s.emitter.remove(s)
}

// Emitter is an observer list keyed by event kind. Handlers may subscribe or
// unsubscribe from inside a callback.
type Emitter struct {
	subs map[EventKind][]*Subscription
}

// Subscribe registers fn for every event of kind.
func (e *Emitter) Subscribe(kind EventKind, fn func(Event)) *Subscription {
	return e.add(kind, 0, fn)
}

// SubscribeWindow registers fn for events of kind that concern id.
func (e *Emitter) SubscribeWindow(kind EventKind, id WindowID, fn func(Event)) *Subscription {
	return e.add(kind, id, fn)
}

func (e *Emitter) add(kind EventKind, id WindowID, fn func(Event)) *Subscription {
	if e.subs == nil {
		e.subs = make(map[EventKind][]*Subscription)
	}
	sub := &Subscription{emitter: e, kind: kind, window: id, fn: fn, active: true}
	e.subs[kind] = append(e.subs[kind], sub)
	return sub
}

func (e *Emitter) remove(sub *Subscription) {
	list := e.subs[sub.kind]
	for i, s := range list {
		if s == sub {
			e.subs[sub.kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every matching handler registered at the time of the
// call. Handlers removed during delivery are skipped.
func (e *Emitter) Emit(ev Event) {
	snapshot := append([]*Subscription(nil), e.subs[ev.Kind]...)
	for _, sub := range snapshot {
		if !sub.active {
			continue
		}
		if sub.window != 0 && sub.window != ev.Window {
			continue
		}
		sub.fn(ev)
	}
}

// Count returns the number of live subscriptions for kind.
func (e *Emitter) Count(kind EventKind) int {
	return len(e.subs[kind])
}
