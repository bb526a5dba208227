package platform

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

// Key identifies the keys the overview reacts to. Everything else is KeyOther.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
)

// Modifier is a bitmask of held modifier keys.
type Modifier uint16

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// ButtonEvent is a pointer button transition at a global position.
type ButtonEvent struct {
	Button  Button
	Pressed bool
	X       int
	Y       int
}

// TouchEvent is a touch contact transition. Motion is not reported.
type TouchEvent struct {
	ID   int
	Down bool
	X    int
	Y    int
}

// KeyEvent is a keyboard transition with the modifiers held at that time.
type KeyEvent struct {
	Key       Key
	Pressed   bool
	Modifiers Modifier
}

// InputHandler receives input while a feature has installed it.
type InputHandler interface {
	HandleButton(ev ButtonEvent)
	HandleTouch(ev TouchEvent)
	HandleKey(ev KeyEvent)
}
