package ripple

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// glintExponent keeps the specular highlight tight.
	glintExponent = 60
	// fringeMix is the weight of the second, stronger red/blue sample.
	fringeMix = 0.3
	// fringeScale is the offset multiplier of the second red/blue sample.
	fringeScale = 1.5
)

var (
	// LightDir is the fixed light direction used for the glint.
	LightDir = mgl32.Vec3{-3, 10, 3}.Normalize()
	// GlintTint is the warm white added on top of highlights.
	GlintTint = mgl32.Vec3{1.0, 0.95, 0.85}
)

// ShadePixel computes the refracted background color for one pixel.
// (u, v) is the pixel centre in simulation texture space (v up); the
// background is sampled with v flipped so the image appears upright.
func ShadePixel(c Cell, u, v float32, bg Sampler, p Params) Color {
	uv := mgl32.Vec2{u, 1 - v}
	base := mgl32.Vec2{c.GradX, c.GradY}.Mul(p.DistortionStrength)
	at := uv.Add(base)

	var col Color
	if p.ChromaticAberrationStrength == 0 {
		col = bg.Sample(at[0], at[1])
	} else {
		strength := p.ChromaticAberrationStrength
		fromCenter := uv.Sub(mgl32.Vec2{0.5, 0.5})
		dist := fromCenter.Len()
		var dir mgl32.Vec2
		if dist > 0 {
			dir = fromCenter.Mul(1 / dist)
		}
		total := base.Len()*strength*0.5 + dist*strength*p.ChromaticAberrationDispersal
		off := dir.Mul(total)

		rAt := at.Sub(off)
		bAt := at.Add(off)
		r := bg.Sample(rAt[0], rAt[1]).R
		g := bg.Sample(at[0], at[1])
		b := bg.Sample(bAt[0], bAt[1]).B

		wide := off.Mul(fringeScale)
		r2At := at.Sub(wide)
		b2At := at.Add(wide)
		r = mix(r, bg.Sample(r2At[0], r2At[1]).R, fringeMix)
		b = mix(b, bg.Sample(b2At[0], b2At[1]).B, fringeMix)

		col = Color{
			R: mgl32.Clamp(r, 0, 1),
			G: mgl32.Clamp(g.G, 0, 1),
			B: mgl32.Clamp(b, 0, 1),
			A: g.A,
		}
	}

	glint := Glint(c)
	col.R += GlintTint[0] * glint
	col.G += GlintTint[1] * glint
	col.B += GlintTint[2] * glint
	return col
}

// Glint returns the specular term for a cell's surface slope.
func Glint(c Cell) float32 {
	n := mgl32.Vec3{-c.GradX, 0.2, -c.GradY}.Normalize()
	d := n.Dot(LightDir)
	if d <= 0 {
		return 0
	}
	return float32(math.Pow(float64(d), glintExponent))
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Composite shades every pixel of dst from the simulation state. While the
// transition is active the result is a blend of the current and incoming
// backgrounds weighted by its progress. Simulation row y lands on dst row
// H-1-y.
func Composite(state *Buffer, current, incoming Sampler, tr Transition, params Params, dst *image.RGBA) {
	width, height := state.Width, state.Height
	blend := tr.Active && incoming != nil
	invW := 1 / float32(width)
	invH := 1 / float32(height)

	for y := 0; y < height; y++ {
		v := (float32(y) + 0.5) * invH
		row := height - 1 - y
		for x := 0; x < width; x++ {
			u := (float32(x) + 0.5) * invW
			c := state.Cells[y*width+x]
			col := ShadePixel(c, u, v, current, params)
			if blend {
				col = col.Lerp(ShadePixel(c, u, v, incoming, params), tr.Progress)
			}
			i := dst.PixOffset(x+dst.Rect.Min.X, row+dst.Rect.Min.Y)
			px := col.RGBA()
			dst.Pix[i+0] = px.R
			dst.Pix[i+1] = px.G
			dst.Pix[i+2] = px.B
			dst.Pix[i+3] = 255
		}
	}
}
