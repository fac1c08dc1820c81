// Package renderer initializes OpenGL and manages the default framebuffer.
package renderer

import (
	"fmt"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor color.Color
}

// Info describes the active OpenGL implementation.
type Info struct {
	Version  string
	Renderer string
	Vendor   string
	GLSL     string
}

// Renderer owns global GL state for the default framebuffer.
type Renderer struct {
	config Config
	info   Info
	clear  [3]float32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.info = Info{
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		GLSL:     gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
	logger.Info("OpenGL initialized",
		zap.String("version", r.info.Version),
		zap.String("renderer", r.info.Renderer),
		zap.String("vendor", r.info.Vendor),
		zap.String("glsl", r.info.GLSL),
	)

	r.clear = clearColor(cfg.ClearColor)

	// The ripple passes are plain fullscreen quads.
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.ClearColor(r.clear[0], r.clear[1], r.clear[2], 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

func clearColor(c color.Color) [3]float32 {
	if c == nil {
		return [3]float32{0, 0, 0}
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent: the clear is opaque, so keep the straight RGB.
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		logger.Warn("transparent clear color, ignoring alpha", zap.Any("color", c))
		return [3]float32{float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255}
	}
	return [3]float32{float32(cc.R), float32(cc.G), float32(cc.B)}
}

// Info returns the OpenGL implementation strings.
func (r *Renderer) Info() Info {
	return r.info
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
}

// Resize handles drawable size changes.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}
