package ripple

import (
	"image"
	"image/color"
	"math"

	"github.com/Faultbox/marina-ripple/internal/engine/texture"
)

// Color is an RGBA color with components nominally in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Lerp blends c towards o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// RGBA converts to 8-bit, clamping out-of-range components.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: toByte(c.A)}
}

func toByte(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// ColorFrom converts any color.Color.
func ColorFrom(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{
		R: float32(r) / 0xffff,
		G: float32(g) / 0xffff,
		B: float32(b) / 0xffff,
		A: float32(a) / 0xffff,
	}
}

// Texture is a background image handle owned by a backend.
type Texture interface {
	Size() (width, height int)
}

// Sampler returns the filtered color of a texture at normalized coordinates.
type Sampler interface {
	Sample(u, v float32) Color
}

// ImageTexture is a CPU-side texture with bilinear filtering and
// clamp-to-edge wrapping. v = 0 addresses the first row of the source image,
// matching how the rows are uploaded to a GL texture.
type ImageTexture struct {
	pix           *image.RGBA
	width, height int
}

// NewImageTexture wraps img as a sampleable texture. Images that are not
// origin-based RGBA are converted first; the pixels must not be modified
// afterwards.
func NewImageTexture(img image.Image) *ImageTexture {
	rgba := texture.ImageToRGBA(img)
	b := rgba.Bounds()
	return &ImageTexture{pix: rgba, width: b.Dx(), height: b.Dy()}
}

// NewSolidTexture returns a 1×1 texture of a single color.
func NewSolidTexture(c color.Color) *ImageTexture {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, c)
	return &ImageTexture{pix: img, width: 1, height: 1}
}

// Size implements Texture.
func (t *ImageTexture) Size() (int, int) { return t.width, t.height }

// Sample implements Sampler.
func (t *ImageTexture) Sample(u, v float32) Color {
	fx := float64(u)*float64(t.width) - 0.5
	fy := float64(v)*float64(t.height) - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := float32(fx - x0)
	ty := float32(fy - y0)
	ix, iy := int(x0), int(y0)

	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)
	return c00.Lerp(c10, tx).Lerp(c01.Lerp(c11, tx), ty)
}

func (t *ImageTexture) texel(x, y int) Color {
	x = clampInt(x, 0, t.width-1)
	y = clampInt(y, 0, t.height-1)
	i := t.pix.PixOffset(x+t.pix.Rect.Min.X, y+t.pix.Rect.Min.Y)
	p := t.pix.Pix[i : i+4 : i+4]
	return Color{
		R: float32(p[0]) / 255,
		G: float32(p[1]) / 255,
		B: float32(p[2]) / 255,
		A: float32(p[3]) / 255,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
