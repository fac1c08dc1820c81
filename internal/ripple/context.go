package ripple

// Impulse is the current pointer contact in simulation pixels (origin at the
// bottom-left). Only the latest contact is kept.
type Impulse struct {
	X, Y   float32
	Active bool
}

// RenderContext carries the per-frame state threaded through the kernels.
type RenderContext struct {
	FrameIndex int
	Width      int
	Height     int
	Impulse    Impulse
	Params     Params
}
