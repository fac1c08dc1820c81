package game

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/marina-ripple/internal/engine/input"
	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// pointerEvent maps a mouse event to a ripple pointer event in drawable
// pixels. Only the left button presses ripples into the surface.
func pointerEvent(ev input.Event, sx, sy float32) (kind ripple.PointerKind, x, y float32, ok bool) {
	x = float32(ev.MouseX) * sx
	y = float32(ev.MouseY) * sy

	switch ev.Type {
	case input.EventMouseMove:
		return ripple.PointerMove, x, y, true
	case input.EventMouseDown:
		if ev.Button != sdl.BUTTON_LEFT {
			return 0, 0, 0, false
		}
		return ripple.PointerDown, x, y, true
	case input.EventMouseUp:
		if ev.Button != sdl.BUTTON_LEFT {
			return 0, 0, 0, false
		}
		return ripple.PointerUp, x, y, true
	case input.EventMouseLeave:
		return ripple.PointerLeave, 0, 0, true
	}
	return 0, 0, 0, false
}
