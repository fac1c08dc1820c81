package ripple

import "fmt"

// PointerKind identifies a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

// RippleEvent is sent to listeners for every accepted pointer-down.
type RippleEvent struct {
	SizePixels float32
	Strength   float32
}

// RippleListener receives ripple notifications, e.g. a sound effect player.
type RippleListener interface {
	RippleTriggered(ev RippleEvent)
}

// RippleListenerFunc adapts a function to RippleListener.
type RippleListenerFunc func(ev RippleEvent)

// RippleTriggered implements RippleListener.
func (f RippleListenerFunc) RippleTriggered(ev RippleEvent) { f(ev) }

// Interaction translates viewport pointer events into the impulse state.
// Viewport coordinates have their origin at the top-left; the impulse uses
// the simulation's bottom-up convention.
type Interaction struct {
	impulse Impulse
	height  int
}

// SetViewportHeight sets the height used for the Y flip.
func (in *Interaction) SetViewportHeight(h int) { in.height = h }

// Impulse returns the current impulse.
func (in *Interaction) Impulse() Impulse { return in.impulse }

// OnPointer applies a pointer event and reports whether it was a press.
// A leave is treated as a release so a drag that exits the surface does not
// keep pumping energy.
func (in *Interaction) OnPointer(kind PointerKind, x, y float32) (pressed bool) {
	switch kind {
	case PointerDown:
		in.moveTo(x, y)
		in.impulse.Active = true
		return true
	case PointerMove:
		in.moveTo(x, y)
	case PointerUp, PointerLeave:
		in.impulse.Active = false
	}
	return false
}

func (in *Interaction) moveTo(x, y float32) {
	in.impulse.X = x
	in.impulse.Y = float32(in.height) - y
}
