package ripple

import (
	"fmt"
	"math"
)

// Tuning parameter names accepted by SetTuningParameter.
const (
	ParamWaveSpeed                    = "waveSpeed"
	ParamSpringStrength               = "springStrength"
	ParamVelocityDamping              = "velocityDamping"
	ParamPressureDamping              = "pressureDamping"
	ParamDistortionStrength           = "distortionStrength"
	ParamRippleSize                   = "rippleSize"
	ParamRippleStrength               = "rippleStrength"
	ParamChromaticAberrationStrength  = "chromaticAberrationStrength"
	ParamChromaticAberrationDispersal = "chromaticAberrationDispersal"
)

// Params is a per-frame snapshot of the externally supplied tunables.
// The pipeline copies it by value at the start of every frame.
type Params struct {
	WaveSpeed       float32 `yaml:"wave_speed"`
	SpringStrength  float32 `yaml:"spring_strength"`
	VelocityDamping float32 `yaml:"velocity_damping"`
	PressureDamping float32 `yaml:"pressure_damping"`
	RippleSize      float32 `yaml:"ripple_size"`
	RippleStrength  float32 `yaml:"ripple_strength"`

	DistortionStrength           float32 `yaml:"distortion_strength"`
	ChromaticAberrationStrength  float32 `yaml:"chromatic_aberration_strength"`
	ChromaticAberrationDispersal float32 `yaml:"chromatic_aberration_dispersal"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		WaveSpeed:       1.0,
		SpringStrength:  0.005,
		VelocityDamping: 0.002,
		PressureDamping: 0.999,
		RippleSize:      20.0,
		RippleStrength:  1.0,

		DistortionStrength:           0.2,
		ChromaticAberrationStrength:  1.0,
		ChromaticAberrationDispersal: 0.005,
	}
}

// Normalized returns a copy with missing values replaced by defaults.
// Integrator values are missing when zero or non-finite; compositor values
// only when non-finite, since zero is a meaningful setting for them.
func (p Params) Normalized() Params {
	d := DefaultParams()
	fillMissing(&p.WaveSpeed, d.WaveSpeed)
	fillMissing(&p.SpringStrength, d.SpringStrength)
	fillMissing(&p.VelocityDamping, d.VelocityDamping)
	fillMissing(&p.PressureDamping, d.PressureDamping)
	fillMissing(&p.RippleSize, d.RippleSize)
	fillMissing(&p.RippleStrength, d.RippleStrength)
	fillNonFinite(&p.DistortionStrength, d.DistortionStrength)
	fillNonFinite(&p.ChromaticAberrationStrength, d.ChromaticAberrationStrength)
	fillNonFinite(&p.ChromaticAberrationDispersal, d.ChromaticAberrationDispersal)
	return p
}

func fillMissing(v *float32, def float32) {
	if *v == 0 || !finite(*v) {
		*v = def
	}
}

func fillNonFinite(v *float32, def float32) {
	if !finite(*v) {
		*v = def
	}
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// field maps a parameter name to its storage.
func (p *Params) field(name string) *float32 {
	switch name {
	case ParamWaveSpeed:
		return &p.WaveSpeed
	case ParamSpringStrength:
		return &p.SpringStrength
	case ParamVelocityDamping:
		return &p.VelocityDamping
	case ParamPressureDamping:
		return &p.PressureDamping
	case ParamDistortionStrength:
		return &p.DistortionStrength
	case ParamRippleSize:
		return &p.RippleSize
	case ParamRippleStrength:
		return &p.RippleStrength
	case ParamChromaticAberrationStrength:
		return &p.ChromaticAberrationStrength
	case ParamChromaticAberrationDispersal:
		return &p.ChromaticAberrationDispersal
	}
	return nil
}

// Set assigns a parameter by name. Values are stored as given; range
// enforcement belongs to whoever presents the controls.
func (p *Params) Set(name string, value float32) error {
	f := p.field(name)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	*f = value
	return nil
}

// Get returns a parameter by name.
func (p Params) Get(name string) (float32, bool) {
	f := p.field(name)
	if f == nil {
		return 0, false
	}
	return *f, true
}

// Control describes the documented range of a tunable for a settings panel.
type Control struct {
	Name  string
	Label string
	Min   float32
	Max   float32
	Step  float32
}

// Controls lists the panel-adjustable parameters with their documented ranges.
func Controls() []Control {
	return []Control{
		{Name: ParamWaveSpeed, Label: "Wave speed", Min: 0.1, Max: 1.4, Step: 0.05},
		{Name: ParamSpringStrength, Label: "Spring strength", Min: 0.001, Max: 0.02, Step: 0.001},
		{Name: ParamVelocityDamping, Label: "Velocity damping", Min: 0.0005, Max: 0.01, Step: 0.0005},
		{Name: ParamDistortionStrength, Label: "Distortion", Min: 0, Max: 1, Step: 0.01},
		{Name: ParamRippleSize, Label: "Ripple size (px)", Min: 5, Max: 100, Step: 1},
		{Name: ParamRippleStrength, Label: "Ripple strength", Min: 0.1, Max: 5.0, Step: 0.1},
		{Name: ParamChromaticAberrationStrength, Label: "Chromatic aberration", Min: 0, Max: 5.0, Step: 0.1},
		{Name: ParamChromaticAberrationDispersal, Label: "Dispersal", Min: 0.001, Max: 0.02, Step: 0.001},
	}
}
