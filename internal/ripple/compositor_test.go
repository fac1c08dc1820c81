package ripple

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// recordingSampler returns a fixed color and remembers where it was sampled.
type recordingSampler struct {
	col     Color
	samples [][2]float32
}

func (s *recordingSampler) Sample(u, v float32) Color {
	s.samples = append(s.samples, [2]float32{u, v})
	return s.col
}

func TestShadePixelSingleSample(t *testing.T) {
	p := DefaultParams()
	p.ChromaticAberrationStrength = 0
	p.DistortionStrength = 0.5

	tests := []struct {
		name  string
		cell  Cell
		u, v  float32
		wantU float32
		wantV float32
	}{
		{"flat", Cell{}, 0.25, 0.75, 0.25, 0.25},
		{"sloped", Cell{GradX: 0.1, GradY: -0.2}, 0.5, 0.5, 0.55, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bg := &recordingSampler{col: Color{R: 0.5, G: 0.5, B: 0.5, A: 1}}
			ShadePixel(tt.cell, tt.u, tt.v, bg, p)
			if len(bg.samples) != 1 {
				t.Fatalf("got %d samples, want 1", len(bg.samples))
			}
			got := bg.samples[0]
			if !approx(got[0], tt.wantU, 1e-6) || !approx(got[1], tt.wantV, 1e-6) {
				t.Errorf("sampled at %v, want (%v, %v)", got, tt.wantU, tt.wantV)
			}
		})
	}
}

func TestShadePixelAberration(t *testing.T) {
	p := DefaultParams()
	bg := &recordingSampler{col: Color{R: 0.2, G: 0.4, B: 0.6, A: 1}}
	col := ShadePixel(Cell{GradX: 0.05}, 0.9, 0.1, bg, p)

	if len(bg.samples) != 5 {
		t.Fatalf("got %d samples, want 5", len(bg.samples))
	}
	// Red and blue are sampled on opposite sides of green.
	red, green, blue := bg.samples[0], bg.samples[1], bg.samples[2]
	for i := 0; i < 2; i++ {
		if !approx(green[i]-red[i], blue[i]-green[i], 1e-6) {
			t.Errorf("axis %d: offsets not symmetric: r=%v g=%v b=%v", i, red, green, blue)
		}
	}
	if red == green {
		t.Error("red channel was not displaced")
	}

	glint := Glint(Cell{GradX: 0.05})
	want := Color{
		R: 0.2 + GlintTint[0]*glint,
		G: 0.4 + GlintTint[1]*glint,
		B: 0.6 + GlintTint[2]*glint,
	}
	if !approx(col.R, want.R, 1e-5) || !approx(col.G, want.G, 1e-5) || !approx(col.B, want.B, 1e-5) {
		t.Errorf("color = %+v, want %+v", col, want)
	}
}

func TestShadePixelCentreHasNoFringe(t *testing.T) {
	p := DefaultParams()
	bg := &recordingSampler{col: Color{A: 1}}
	ShadePixel(Cell{}, 0.5, 0.5, bg, p)
	for i, s := range bg.samples {
		if s != bg.samples[0] {
			t.Errorf("sample %d at %v, want all at %v", i, s, bg.samples[0])
		}
	}
}

func TestGlint(t *testing.T) {
	flat := Glint(Cell{})
	wantFlat := float32(math.Pow(10/math.Sqrt(118), 60))
	if !approx(flat, wantFlat, 1e-6) {
		t.Errorf("flat glint = %v, want %v", flat, wantFlat)
	}

	// A normal aligned with the light direction gives a full highlight.
	if g := Glint(Cell{GradX: 0.06, GradY: -0.06}); !approx(g, 1, 1e-4) {
		t.Errorf("aligned glint = %v, want 1", g)
	}

	if g := Glint(Cell{GradX: -10}); g != 0 {
		t.Errorf("glint facing away = %v, want 0", g)
	}
}

func TestCompositeOrientation(t *testing.T) {
	// Top row red, bottom row blue.
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	bg := NewImageTexture(img)

	p := DefaultParams()
	p.ChromaticAberrationStrength = 0
	state := newBuffer(1, 2)
	dst := image.NewRGBA(image.Rect(0, 0, 1, 2))
	Composite(state, bg, nil, Transition{}, p, dst)

	top := dst.RGBAAt(0, 0)
	bottom := dst.RGBAAt(0, 1)
	if top.R < 250 || top.B > 10 {
		t.Errorf("top pixel = %v, want red", top)
	}
	if bottom.B < 250 || bottom.R > 10 {
		t.Errorf("bottom pixel = %v, want blue", bottom)
	}
	if top.A != 255 || bottom.A != 255 {
		t.Errorf("alpha = %d/%d, want opaque", top.A, bottom.A)
	}
}

func TestCompositeCrossfade(t *testing.T) {
	black := NewSolidTexture(color.Black)
	white := NewSolidTexture(color.White)
	p := DefaultParams()
	p.ChromaticAberrationStrength = 0
	state := newBuffer(2, 2)
	dst := image.NewRGBA(image.Rect(0, 0, 2, 2))

	tests := []struct {
		name     string
		tr       Transition
		incoming Sampler
		lo, hi   uint8
	}{
		{"inactive", Transition{}, white, 0, 4},
		{"start", Transition{Active: true, Progress: 0}, white, 0, 4},
		{"half", Transition{Active: true, Progress: 0.5}, white, 125, 133},
		{"no incoming", Transition{Active: true, Progress: 0.5}, nil, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Composite(state, black, tt.incoming, tt.tr, p, dst)
			c := dst.RGBAAt(1, 1)
			if c.G < tt.lo || c.G > tt.hi {
				t.Errorf("green = %d, want within [%d, %d]", c.G, tt.lo, tt.hi)
			}
		})
	}
}

func TestImageTextureSample(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	tex := NewImageTexture(img)

	tests := []struct {
		name string
		u    float32
		want float32
	}{
		{"left texel centre", 0.25, 0},
		{"midpoint", 0.5, 0.5},
		{"right texel centre", 0.75, 1},
		{"clamped left", -3, 0},
		{"clamped right", 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tex.Sample(tt.u, 0.5).R; !approx(got, tt.want, 1e-6) {
				t.Errorf("Sample(%v).R = %v, want %v", tt.u, got, tt.want)
			}
		})
	}
}
