// Package framebuffer provides OpenGL framebuffer utilities for offscreen rendering.
package framebuffer

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var (
	// ErrIncomplete is returned when the driver rejects the attachment
	// combination, typically because the color format is not renderable.
	ErrIncomplete = errors.New("framebuffer incomplete")

	// ErrOutOfMemory is returned when storage for the attachments could not
	// be allocated.
	ErrOutOfMemory = errors.New("framebuffer storage allocation failed")
)

// Format describes the color attachment of a framebuffer.
type Format struct {
	InternalFormat int32
	PixelFormat    uint32
	PixelType      uint32
	Filter         int32
	Depth          bool
}

var (
	// RGBA8 is a displayable 8-bit color target with a depth buffer.
	RGBA8 = Format{
		InternalFormat: gl.RGBA8,
		PixelFormat:    gl.RGBA,
		PixelType:      gl.UNSIGNED_BYTE,
		Filter:         gl.LINEAR,
		Depth:          true,
	}

	// RGBA32F is a full-precision float target for simulation state. It is
	// sampled with texelFetch, so filtering is nearest.
	RGBA32F = Format{
		InternalFormat: gl.RGBA32F,
		PixelFormat:    gl.RGBA,
		PixelType:      gl.FLOAT,
		Filter:         gl.NEAREST,
	}
)

// IsFloat reports whether the color attachment stores floating-point values.
func (f Format) IsFloat() bool {
	return f.PixelType == gl.FLOAT || f.PixelType == gl.HALF_FLOAT
}

// Framebuffer manages an offscreen render target with a color and an
// optional depth attachment.
type Framebuffer struct {
	format       Format
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
}

// New creates a new framebuffer with the specified dimensions and format.
func New(width, height int32, format Format) (*Framebuffer, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	fb := &Framebuffer{
		format: format,
		width:  width,
		height: height,
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating %dx%d framebuffer: %w", width, height, err)
	}

	return fb, nil
}

func (fb *Framebuffer) create() error {
	// Drain stale errors so the allocation check below only sees ours.
	for gl.GetError() != gl.NO_ERROR {
	}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, fb.format.InternalFormat, fb.width, fb.height, 0, fb.format.PixelFormat, fb.format.PixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, fb.format.Filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, fb.format.Filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	if fb.format.Depth {
		gl.GenRenderbuffers(1, &fb.depthRBO)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	}

	if e := gl.GetError(); e == gl.OUT_OF_MEMORY {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		fb.Destroy()
		return ErrOutOfMemory
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("%w: status 0x%x", ErrIncomplete, status)
	}
	return nil
}

// Bind makes this framebuffer the current render target.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Clear clears the bound framebuffer with the specified color.
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	mask := uint32(gl.COLOR_BUFFER_BIT)
	if fb.format.Depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

// ColorTexture returns the color attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// ReadImage reads an RGBA8 framebuffer into a top-down image.
func (fb *Framebuffer) ReadImage() *image.RGBA {
	return ReadImage(fb.fbo, fb.width, fb.height)
}

// ReadImage reads the color buffer of fbo (0 for the default framebuffer)
// into a top-down image, flipping GL's bottom-up rows.
func ReadImage(fbo uint32, width, height int32) *image.RGBA {
	pixels := make([]byte, width*height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	return FlipRows(pixels, int(width), int(height))
}

// FlipRows copies bottom-up RGBA rows into a top-down image.
func FlipRows(pixels []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
}
