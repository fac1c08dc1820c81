package ripple

import (
	"math"
	"testing"
)

func newTestBuffers(w, h int) (*Buffer, *Buffer) {
	return newBuffer(w, h), newBuffer(w, h)
}

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestIntegrateColdStart(t *testing.T) {
	read, write := newTestBuffers(3, 3)
	for i := range read.Cells {
		read.Cells[i] = Cell{Height: 5, Velocity: -2, GradX: 1, GradY: 1}
		write.Cells[i] = Cell{Height: 7, Velocity: 3}
	}

	rc := &RenderContext{FrameIndex: 0, Width: 3, Height: 3, Params: DefaultParams()}
	rc.Impulse = Impulse{X: 1.5, Y: 1.5, Active: true}
	Integrate(read, write, rc)

	for i, c := range write.Cells {
		if c != (Cell{}) {
			t.Fatalf("cell %d = %+v after frame 0, want zero", i, c)
		}
	}
}

func TestIntegrateRestStaysAtRest(t *testing.T) {
	read, write := newTestBuffers(6, 4)
	rc := &RenderContext{FrameIndex: 1, Width: 6, Height: 4, Params: DefaultParams()}
	Integrate(read, write, rc)
	for i, c := range write.Cells {
		if c != (Cell{}) {
			t.Fatalf("cell %d = %+v, want zero", i, c)
		}
	}
}

func TestIntegrateStepOrder(t *testing.T) {
	// A single cell has no neighbours, so only the position, spring and
	// damping steps act on it.
	read, write := newTestBuffers(1, 1)
	read.Cells[0] = Cell{Height: 1, Velocity: 0}
	p := DefaultParams()
	rc := &RenderContext{FrameIndex: 1, Width: 1, Height: 1, Params: p}
	Integrate(read, write, rc)

	wantVel := (0 - p.SpringStrength*1) * (1 - p.VelocityDamping)
	wantHeight := float32(1) * p.PressureDamping

	got := write.Cells[0]
	if !approx(got.Velocity, wantVel, 1e-7) {
		t.Errorf("velocity = %v, want %v", got.Velocity, wantVel)
	}
	if !approx(got.Height, wantHeight, 1e-7) {
		t.Errorf("height = %v, want %v", got.Height, wantHeight)
	}
	if got.GradX != 0 || got.GradY != 0 {
		t.Errorf("gradient = (%v, %v), want zero", got.GradX, got.GradY)
	}
}

func TestIntegrateGradientAndEdges(t *testing.T) {
	read, write := newTestBuffers(4, 1)
	for x, h := range []float32{0, 1, 0, 0} {
		read.Cells[x].Height = h
	}
	rc := &RenderContext{FrameIndex: 1, Width: 4, Height: 1, Params: DefaultParams()}
	Integrate(read, write, rc)

	tests := []struct {
		x     int
		gradX float32
	}{
		{0, 0},    // left edge reflects its right neighbour
		{1, 0},    // symmetric neighbours
		{2, -0.5}, // (0 - 1) / 2
		{3, 0},    // right edge reflects its left neighbour
	}
	for _, tt := range tests {
		c := write.At(tt.x, 0)
		if c.GradX != tt.gradX {
			t.Errorf("x=%d: GradX = %v, want %v", tt.x, c.GradX, tt.gradX)
		}
		if c.GradY != 0 {
			t.Errorf("x=%d: GradY = %v on a single row, want 0", tt.x, c.GradY)
		}
	}

	// The edge cell sees a Laplacian of (1 + 1 - 0) on the horizontal axis.
	p := DefaultParams()
	vel := p.WaveSpeed * 2 / 4
	height := p.WaveSpeed * vel
	vel -= p.SpringStrength * p.WaveSpeed * height
	vel *= 1 - p.VelocityDamping*p.WaveSpeed
	height *= p.PressureDamping
	if got := write.At(0, 0); !approx(got.Height, height, 1e-6) || !approx(got.Velocity, vel, 1e-6) {
		t.Errorf("edge cell = %+v, want height %v velocity %v", got, height, vel)
	}
}

func TestIntegrateImpulse(t *testing.T) {
	read, write := newTestBuffers(9, 9)
	p := DefaultParams()
	p.RippleSize = 2
	p.RippleStrength = 1
	rc := &RenderContext{
		FrameIndex: 1, Width: 9, Height: 9, Params: p,
		Impulse: Impulse{X: 4.5, Y: 4.5, Active: true},
	}
	Integrate(read, write, rc)

	tests := []struct {
		x, y int
		want float32
	}{
		{4, 4, 1},   // centre
		{5, 4, 0.5}, // distance 1
		{4, 6, 0},   // distance 2, edge of the disc
		{0, 0, 0},
		{8, 8, 0},
	}
	for _, tt := range tests {
		if got := write.At(tt.x, tt.y).Height; !approx(got, tt.want, 1e-6) {
			t.Errorf("height at (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	rc.Impulse.Active = false
	read2, write2 := newTestBuffers(9, 9)
	Integrate(read2, write2, rc)
	if got := write2.At(4, 4).Height; got != 0 {
		t.Errorf("inactive impulse added %v", got)
	}
}

func TestIntegrateStaysFiniteAndSymmetric(t *testing.T) {
	const size = 15
	s, err := NewStore(size, size)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rc := &RenderContext{Width: size, Height: size, Params: DefaultParams()}
	rc.Params.RippleSize = 4

	for frame := 0; frame < 40; frame++ {
		rc.FrameIndex = frame
		rc.Impulse = Impulse{X: size / 2.0, Y: size / 2.0, Active: frame < 5}
		read, write := s.FrameBuffers(frame)
		Integrate(read, write, rc)
	}

	_, last := s.FrameBuffers(39)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := last.At(x, y)
			for _, v := range []float32{c.Height, c.Velocity, c.GradX, c.GradY} {
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					t.Fatalf("non-finite state at (%d,%d): %+v", x, y, c)
				}
			}
			mirror := last.At(size-1-x, size-1-y)
			if !approx(c.Height, mirror.Height, 1e-4) {
				t.Fatalf("asymmetric heights at (%d,%d): %v vs %v", x, y, c.Height, mirror.Height)
			}
		}
	}
	if last.At(size/2, size/2).Height == 0 && last.At(0, 0).Height == 0 {
		t.Error("impulse left no trace in the field")
	}
}

func TestIntegrateCornerImpulse(t *testing.T) {
	s, err := NewStore(8, 8)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rc := &RenderContext{Width: 8, Height: 8, Params: DefaultParams()}
	rc.Impulse = Impulse{X: 0, Y: 0, Active: true}
	for frame := 0; frame < 20; frame++ {
		rc.FrameIndex = frame
		read, write := s.FrameBuffers(frame)
		Integrate(read, write, rc)
	}
	_, last := s.FrameBuffers(19)
	for i, c := range last.Cells {
		if math.IsNaN(float64(c.Height)) || math.IsInf(float64(c.Height), 0) {
			t.Fatalf("cell %d height not finite: %v", i, c.Height)
		}
	}
}

func TestImpulseContribution(t *testing.T) {
	p := Params{RippleSize: 10, RippleStrength: 2}
	imp := Impulse{X: 0.5, Y: 0.5, Active: true}

	tests := []struct {
		name string
		x, y int
		imp  Impulse
		want float32
	}{
		{"centre", 0, 0, imp, 2},
		{"half radius", 5, 0, imp, 1},
		{"on radius", 10, 0, imp, 0},
		{"outside", 11, 0, imp, 0},
		{"inactive", 0, 0, Impulse{X: 0.5, Y: 0.5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImpulseContribution(tt.x, tt.y, tt.imp, p); !approx(got, tt.want, 1e-6) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
