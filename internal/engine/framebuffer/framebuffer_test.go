package framebuffer

import "testing"

func TestFlipRows(t *testing.T) {
	// Two rows, bottom-up: row 0 red, row 1 blue.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	img := FlipRows(pixels, 2, 2)

	if c := img.RGBAAt(1, 0); c.B != 255 || c.R != 0 {
		t.Errorf("top row = %v, want blue", c)
	}
	if c := img.RGBAAt(0, 1); c.R != 255 || c.B != 0 {
		t.Errorf("bottom row = %v, want red", c)
	}
}

func TestFormatIsFloat(t *testing.T) {
	if RGBA8.IsFloat() {
		t.Error("RGBA8 reported as float")
	}
	if !RGBA32F.IsFloat() {
		t.Error("RGBA32F not reported as float")
	}
	if RGBA32F.Depth {
		t.Error("simulation format should not carry a depth buffer")
	}
}
