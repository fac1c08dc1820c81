// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// QuadVertexShader draws a fullscreen quad and passes texture coordinates.
//
//go:embed quad.vert
var QuadVertexShader string

// RippleSimulationShader advances the wave state by one step.
//
//go:embed ripple_sim.frag
var RippleSimulationShader string

// RippleCompositeShader refracts the background through the wave state.
//
//go:embed ripple_composite.frag
var RippleCompositeShader string
