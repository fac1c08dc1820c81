package ripple

import "math"

// Integrate advances the simulation by one step, reading from read and
// writing every cell of write. Frame 0 clears the state unconditionally.
//
// Edges use Neumann reflection: a missing neighbour takes the value of the
// opposite neighbour on the same axis, so nothing is read off-grid.
func Integrate(read, write *Buffer, rc *RenderContext) {
	if rc.FrameIndex == 0 {
		write.Clear()
		return
	}

	p := rc.Params.Normalized()
	ws := p.WaveSpeed
	velKeep := 1 - p.VelocityDamping*ws

	width, height := write.Width, write.Height
	src := read.Cells
	dst := write.Cells

	for y := 0; y < height; y++ {
		rowBase := y * width
		downBase := rowBase - width
		upBase := rowBase + width
		for x := 0; x < width; x++ {
			c := src[rowBase+x]
			pressure := c.Height
			vel := c.Velocity

			var left, right, down, up float32
			switch {
			case width == 1:
				left, right = pressure, pressure
			case x == 0:
				right = src[rowBase+x+1].Height
				left = right
			case x == width-1:
				left = src[rowBase+x-1].Height
				right = left
			default:
				left = src[rowBase+x-1].Height
				right = src[rowBase+x+1].Height
			}
			switch {
			case height == 1:
				down, up = pressure, pressure
			case y == 0:
				up = src[upBase+x].Height
				down = up
			case y == height-1:
				down = src[downBase+x].Height
				up = down
			default:
				down = src[downBase+x].Height
				up = src[upBase+x].Height
			}

			// Horizontal and vertical diffusion accumulate separately.
			vel += ws * (right + left - 2*pressure) / 4
			vel += ws * (up + down - 2*pressure) / 4

			pressure += ws * vel

			vel -= p.SpringStrength * ws * pressure
			vel *= velKeep
			pressure *= p.PressureDamping

			if rc.Impulse.Active {
				pressure += impulseAt(x, y, rc.Impulse, p)
			}

			dst[rowBase+x] = Cell{
				Height:   pressure,
				Velocity: vel,
				GradX:    (right - left) / 2,
				GradY:    (up - down) / 2,
			}
		}
	}
}

// ImpulseContribution returns the height added to pixel (x, y) by an active
// impulse: linear falloff from RippleStrength at the centre to zero at
// RippleSize, and nothing beyond it.
func ImpulseContribution(x, y int, imp Impulse, p Params) float32 {
	if !imp.Active {
		return 0
	}
	return impulseAt(x, y, imp, p.Normalized())
}

func impulseAt(x, y int, imp Impulse, p Params) float32 {
	dx := float64(float32(x) + 0.5 - imp.X)
	dy := float64(float32(y) + 0.5 - imp.Y)
	dist := float32(math.Sqrt(dx*dx + dy*dy))
	if dist > p.RippleSize {
		return 0
	}
	return p.RippleStrength * (1 - dist/p.RippleSize)
}
