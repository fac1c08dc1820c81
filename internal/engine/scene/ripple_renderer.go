package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/engine/framebuffer"
	"github.com/Faultbox/marina-ripple/internal/engine/scene/shaders"
	"github.com/Faultbox/marina-ripple/internal/engine/shader"
	"github.com/Faultbox/marina-ripple/internal/engine/texture"
	"github.com/Faultbox/marina-ripple/internal/logger"
	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// Texture units used by the composite pass.
const (
	unitState    = 0
	unitCurrent  = 1
	unitIncoming = 2
)

// GLTexture is a background image uploaded to the GPU.
type GLTexture struct {
	id            uint32
	width, height int
}

// Size implements ripple.Texture.
func (t *GLTexture) Size() (int, int) { return t.width, t.height }

// ID returns the GL texture name.
func (t *GLTexture) ID() uint32 { return t.id }

// RippleRenderer runs the ripple simulation and compositor as fragment
// passes. It implements ripple.Backend and must only be used on the thread
// that owns the GL context.
type RippleRenderer struct {
	// Shaders
	simProgram       uint32
	compositeProgram uint32

	// Simulation uniforms
	locSimState       int32
	locSimSize        int32
	locSimFrame       int32
	locWaveSpeed      int32
	locSpringStrength int32
	locVelocityDamp   int32
	locPressureDamp   int32
	locImpulse        int32
	locRippleSize     int32
	locRippleStrength int32

	// Composite uniforms
	locCompState  int32
	locCurrent    int32
	locIncoming   int32
	locBlend      int32
	locProgress   int32
	locDistortion int32
	locAberration int32
	locDispersal  int32
	locLightDir   int32
	locGlintTint  int32

	// Fullscreen quad
	vao uint32
	vbo uint32

	// Ping-pong state targets, indexed by frame parity.
	targets       [2]*framebuffer.Framebuffer
	width, height int32
	lastWrite     *framebuffer.Framebuffer

	placeholder *GLTexture
	live        map[*GLTexture]struct{}
}

// NewRippleRenderer compiles the ripple programs and creates the placeholder
// texture. Buffers are allocated by the first Resize.
func NewRippleRenderer(placeholder color.Color) (*RippleRenderer, error) {
	r := &RippleRenderer{
		live: make(map[*GLTexture]struct{}),
	}

	var err error
	r.simProgram, err = shader.CompileProgram(shaders.QuadVertexShader, shaders.RippleSimulationShader)
	if err != nil {
		return nil, fmt.Errorf("ripple simulation program: %w", err)
	}
	r.compositeProgram, err = shader.CompileProgram(shaders.QuadVertexShader, shaders.RippleCompositeShader)
	if err != nil {
		gl.DeleteProgram(r.simProgram)
		return nil, fmt.Errorf("ripple composite program: %w", err)
	}

	r.locSimState = shader.GetUniform(r.simProgram, "uState")
	r.locSimSize = shader.GetUniform(r.simProgram, "uSize")
	r.locSimFrame = shader.GetUniform(r.simProgram, "uFrame")
	r.locWaveSpeed = shader.GetUniform(r.simProgram, "uWaveSpeed")
	r.locSpringStrength = shader.GetUniform(r.simProgram, "uSpringStrength")
	r.locVelocityDamp = shader.GetUniform(r.simProgram, "uVelocityDamping")
	r.locPressureDamp = shader.GetUniform(r.simProgram, "uPressureDamping")
	r.locImpulse = shader.GetUniform(r.simProgram, "uImpulse")
	r.locRippleSize = shader.GetUniform(r.simProgram, "uRippleSize")
	r.locRippleStrength = shader.GetUniform(r.simProgram, "uRippleStrength")

	r.locCompState = shader.GetUniform(r.compositeProgram, "uState")
	r.locCurrent = shader.GetUniform(r.compositeProgram, "uCurrent")
	r.locIncoming = shader.GetUniform(r.compositeProgram, "uIncoming")
	r.locBlend = shader.GetUniform(r.compositeProgram, "uBlend")
	r.locProgress = shader.GetUniform(r.compositeProgram, "uProgress")
	r.locDistortion = shader.GetUniform(r.compositeProgram, "uDistortion")
	r.locAberration = shader.GetUniform(r.compositeProgram, "uAberration")
	r.locDispersal = shader.GetUniform(r.compositeProgram, "uDispersal")
	r.locLightDir = shader.GetUniform(r.compositeProgram, "uLightDir")
	r.locGlintTint = shader.GetUniform(r.compositeProgram, "uGlintTint")

	r.createQuad()

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, placeholder)
	r.placeholder = &GLTexture{id: uploadTexture(img), width: 1, height: 1}

	return r, nil
}

func (r *RippleRenderer) createQuad() {
	// Two triangles covering clip space.
	vertices := []float32{
		-1, -1,
		1, -1,
		1, 1,
		-1, -1,
		1, 1,
		-1, 1,
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindVertexArray(0)
}

// Resize implements ripple.Backend. The new pair is created before the old
// one is destroyed, so a failure leaves the renderer usable.
func (r *RippleRenderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 || width > ripple.MaxCells/height {
		return fmt.Errorf("%w: invalid size %dx%d", ripple.ErrAllocation, width, height)
	}

	var next [2]*framebuffer.Framebuffer
	for i := range next {
		fb, err := framebuffer.New(int32(width), int32(height), framebuffer.RGBA32F)
		if err != nil {
			for _, created := range next[:i] {
				created.Destroy()
			}
			return mapFramebufferError(err)
		}
		next[i] = fb
	}

	for _, fb := range r.targets {
		if fb != nil {
			fb.Destroy()
		}
	}
	r.targets = next
	r.width, r.height = int32(width), int32(height)
	r.lastWrite = nil

	for _, fb := range r.targets {
		fb.Bind()
		fb.Clear(0, 0, 0, 0)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	logger.Debug("ripple targets allocated",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// mapFramebufferError translates framebuffer failures into the pipeline's
// error kinds.
func mapFramebufferError(err error) error {
	switch {
	case errors.Is(err, framebuffer.ErrIncomplete):
		return fmt.Errorf("%w: %v", ripple.ErrUnsupportedPrecision, err)
	case errors.Is(err, framebuffer.ErrOutOfMemory):
		return fmt.Errorf("%w: %v", ripple.ErrAllocation, err)
	}
	return err
}

// Simulate implements ripple.Backend.
func (r *RippleRenderer) Simulate(rc *ripple.RenderContext) {
	w := rc.FrameIndex & 1
	read, write := r.targets[1-w], r.targets[w]
	if read == nil || write == nil {
		return
	}

	write.Bind()
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(r.simProgram)
	gl.ActiveTexture(gl.TEXTURE0 + unitState)
	gl.BindTexture(gl.TEXTURE_2D, read.ColorTexture())
	gl.Uniform1i(r.locSimState, unitState)
	gl.Uniform2i(r.locSimSize, r.width, r.height)
	gl.Uniform1i(r.locSimFrame, int32(rc.FrameIndex))

	p := rc.Params
	gl.Uniform1f(r.locWaveSpeed, p.WaveSpeed)
	gl.Uniform1f(r.locSpringStrength, p.SpringStrength)
	gl.Uniform1f(r.locVelocityDamp, p.VelocityDamping)
	gl.Uniform1f(r.locPressureDamp, p.PressureDamping)
	gl.Uniform1f(r.locRippleSize, p.RippleSize)
	gl.Uniform1f(r.locRippleStrength, p.RippleStrength)

	var active float32
	if rc.Impulse.Active {
		active = 1
	}
	gl.Uniform3f(r.locImpulse, rc.Impulse.X, rc.Impulse.Y, active)

	r.drawQuad()
	write.Unbind()
	r.lastWrite = write
}

// Composite implements ripple.Backend. It draws into the default
// framebuffer.
func (r *RippleRenderer) Composite(rc *ripple.RenderContext, current, incoming ripple.Texture, tr ripple.Transition) {
	if r.lastWrite == nil {
		return
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.width, r.height)

	gl.UseProgram(r.compositeProgram)

	gl.ActiveTexture(gl.TEXTURE0 + unitState)
	gl.BindTexture(gl.TEXTURE_2D, r.lastWrite.ColorTexture())
	gl.Uniform1i(r.locCompState, unitState)

	gl.ActiveTexture(gl.TEXTURE0 + unitCurrent)
	gl.BindTexture(gl.TEXTURE_2D, r.textureID(current))
	gl.Uniform1i(r.locCurrent, unitCurrent)

	blend := tr.Active && incoming != nil
	gl.ActiveTexture(gl.TEXTURE0 + unitIncoming)
	if blend {
		gl.BindTexture(gl.TEXTURE_2D, r.textureID(incoming))
		gl.Uniform1i(r.locBlend, 1)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, r.placeholder.id)
		gl.Uniform1i(r.locBlend, 0)
	}
	gl.Uniform1i(r.locIncoming, unitIncoming)
	gl.Uniform1f(r.locProgress, tr.Progress)

	p := rc.Params
	gl.Uniform1f(r.locDistortion, p.DistortionStrength)
	gl.Uniform1f(r.locAberration, p.ChromaticAberrationStrength)
	gl.Uniform1f(r.locDispersal, p.ChromaticAberrationDispersal)
	gl.Uniform3fv(r.locLightDir, 1, &ripple.LightDir[0])
	gl.Uniform3fv(r.locGlintTint, 1, &ripple.GlintTint[0])

	r.drawQuad()
	gl.ActiveTexture(gl.TEXTURE0)
}

func (r *RippleRenderer) drawQuad() {
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func (r *RippleRenderer) textureID(tex ripple.Texture) uint32 {
	if t, ok := tex.(*GLTexture); ok && t != nil && t.id != 0 {
		return t.id
	}
	return r.placeholder.id
}

// NewTexture implements ripple.TextureFactory.
func (r *RippleRenderer) NewTexture(img image.Image) (ripple.Texture, error) {
	rgba := texture.ImageToRGBA(img)
	b := rgba.Bounds()

	for gl.GetError() != gl.NO_ERROR {
	}
	id := uploadTexture(rgba)
	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return nil, fmt.Errorf("uploading %dx%d texture: GL error 0x%x", b.Dx(), b.Dy(), e)
	}

	t := &GLTexture{id: id, width: b.Dx(), height: b.Dy()}
	r.live[t] = struct{}{}
	return t, nil
}

// uploadTexture uploads an RGBA image with linear filtering and
// clamp-to-edge wrapping.
func uploadTexture(img *image.RGBA) uint32 {
	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return texID
}

// Placeholder implements ripple.TextureFactory.
func (r *RippleRenderer) Placeholder() ripple.Texture { return r.placeholder }

// ReleaseTexture implements ripple.TextureFactory.
func (r *RippleRenderer) ReleaseTexture(tex ripple.Texture) {
	t, ok := tex.(*GLTexture)
	if !ok || t == nil || t == r.placeholder {
		return
	}
	if _, tracked := r.live[t]; !tracked {
		return
	}
	delete(r.live, t)
	gl.DeleteTextures(1, &t.id)
	t.id = 0
}

// LiveTextures returns the number of uploaded backgrounds not yet released.
func (r *RippleRenderer) LiveTextures() int { return len(r.live) }

// ReadFrame reads the composited frame back from the default framebuffer.
func (r *RippleRenderer) ReadFrame() *image.RGBA {
	return framebuffer.ReadImage(0, r.width, r.height)
}

// Release implements ripple.Backend.
func (r *RippleRenderer) Release() {
	for i, fb := range r.targets {
		if fb != nil {
			fb.Destroy()
			r.targets[i] = nil
		}
	}
	r.lastWrite = nil
	for t := range r.live {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
	clear(r.live)
	if r.placeholder != nil && r.placeholder.id != 0 {
		gl.DeleteTextures(1, &r.placeholder.id)
		r.placeholder.id = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.simProgram != 0 {
		gl.DeleteProgram(r.simProgram)
		r.simProgram = 0
	}
	if r.compositeProgram != 0 {
		gl.DeleteProgram(r.compositeProgram)
		r.compositeProgram = 0
	}
}

var _ ripple.Backend = (*RippleRenderer)(nil)
