package ripple

import (
	"image"
	"image/color"
)

// Backend runs the simulation and compositing passes. Implementations own
// the two simulation buffers; nothing else touches them.
type Backend interface {
	TextureFactory

	// Resize (re)allocates the simulation buffers at the given size and
	// clears them. On failure the previous buffers stay valid.
	Resize(width, height int) error

	// Simulate runs one integrator pass for rc.FrameIndex, reading the
	// previous buffer and writing the other one.
	Simulate(rc *RenderContext)

	// Composite draws the buffer written by the last Simulate over the
	// backgrounds. incoming is nil unless tr is active.
	Composite(rc *RenderContext, current, incoming Texture, tr Transition)

	// Release frees every resource held by the backend.
	Release()
}

// CPUBackend runs the kernels as plain loops and renders into an RGBA image.
type CPUBackend struct {
	store       *Store
	surface     *image.RGBA
	placeholder *ImageTexture
	lastWrite   *Buffer
	live        map[*ImageTexture]struct{}
}

// NewCPUBackend creates a backend whose placeholder is a 1×1 texture of the
// given color.
func NewCPUBackend(placeholder color.Color) *CPUBackend {
	return &CPUBackend{
		store:       &Store{},
		placeholder: NewSolidTexture(placeholder),
		live:        make(map[*ImageTexture]struct{}),
	}
}

// Resize implements Backend.
func (b *CPUBackend) Resize(width, height int) error {
	if err := b.store.Resize(width, height); err != nil {
		return err
	}
	b.surface = image.NewRGBA(image.Rect(0, 0, width, height))
	b.lastWrite = nil
	return nil
}

// Simulate implements Backend.
func (b *CPUBackend) Simulate(rc *RenderContext) {
	read, write := b.store.FrameBuffers(rc.FrameIndex)
	Integrate(read, write, rc)
	b.lastWrite = write
}

// Composite implements Backend.
func (b *CPUBackend) Composite(rc *RenderContext, current, incoming Texture, tr Transition) {
	if b.lastWrite == nil {
		return
	}
	var inc Sampler
	if incoming != nil {
		inc = b.sampler(incoming)
	}
	Composite(b.lastWrite, b.sampler(current), inc, tr, rc.Params, b.surface)
}

func (b *CPUBackend) sampler(tex Texture) Sampler {
	if t, ok := tex.(*ImageTexture); ok && t != nil {
		return t
	}
	return b.placeholder
}

// Surface returns the rendered frame. Row 0 is the top of the viewport.
func (b *CPUBackend) Surface() *image.RGBA { return b.surface }

// Store exposes the simulation buffers for inspection.
func (b *CPUBackend) Store() *Store { return b.store }

// NewTexture implements TextureFactory.
func (b *CPUBackend) NewTexture(img image.Image) (Texture, error) {
	t := NewImageTexture(img)
	b.live[t] = struct{}{}
	return t, nil
}

// Placeholder implements TextureFactory.
func (b *CPUBackend) Placeholder() Texture { return b.placeholder }

// ReleaseTexture implements TextureFactory.
func (b *CPUBackend) ReleaseTexture(tex Texture) {
	if t, ok := tex.(*ImageTexture); ok {
		delete(b.live, t)
	}
}

// LiveTextures returns the number of textures created and not yet released.
func (b *CPUBackend) LiveTextures() int { return len(b.live) }

// Release implements Backend.
func (b *CPUBackend) Release() {
	b.store.Release()
	b.surface = nil
	b.lastWrite = nil
	clear(b.live)
}
