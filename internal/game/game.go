// Package game implements the interactive ripple application: window,
// event loop and the wiring between input, audio and the ripple pipeline.
package game

import (
	"fmt"
	"net/http"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/assets"
	"github.com/Faultbox/marina-ripple/internal/config"
	"github.com/Faultbox/marina-ripple/internal/engine/audio"
	"github.com/Faultbox/marina-ripple/internal/engine/debug"
	"github.com/Faultbox/marina-ripple/internal/engine/input"
	"github.com/Faultbox/marina-ripple/internal/engine/renderer"
	"github.com/Faultbox/marina-ripple/internal/engine/scene"
	"github.com/Faultbox/marina-ripple/internal/engine/window"
	"github.com/Faultbox/marina-ripple/internal/logger"
	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// Game is the main application instance.
type Game struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	audio    *audio.Manager
	assets   *assets.Manager
	ripples  *scene.RippleRenderer
	pipeline *ripple.Pipeline
	capture  *debug.ScreenshotCapture
}

// New creates the window, GL state and ripple pipeline, and starts loading
// the configured background.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing application",
		zap.String("title", cfg.Graphics.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	placeholder, err := cfg.Background.Placeholder()
	if err != nil {
		return nil, err
	}

	g := &Game{
		config:  cfg,
		input:   input.New(),
		capture: debug.NewScreenshotCapture(cfg.Capture.OutputDir, cfg.Capture.Prefix),
		assets:  assets.NewManager(&http.Client{}, cfg.Background.CacheEntries),
	}

	// Create window (this also creates OpenGL context)
	g.window, err = window.New(window.Config{
		Title:      cfg.Graphics.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The simulation runs at drawable resolution, which differs from the
	// window size on HiDPI displays.
	width, height := g.window.DrawableSize()

	// Create renderer (AFTER window, since OpenGL context must exist)
	g.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: placeholder,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.ripples, err = scene.NewRippleRenderer(placeholder)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create ripple renderer: %w", err)
	}

	g.audio = g.initAudio()

	g.pipeline, err = ripple.New(g.ripples, ripple.Options{
		Width:              width,
		Height:             height,
		Params:             cfg.Ripple,
		FallbackURL:        cfg.Background.FallbackURL,
		TransitionDuration: cfg.Background.TransitionDuration,
		FetchTimeout:       cfg.Background.FetchTimeout,
		Fetch:              g.assets.FetchImage,
		Listener:           g.audio,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create ripple pipeline: %w", err)
	}

	if cfg.Background.URL != "" {
		g.pipeline.SetBackgroundImage(cfg.Background.URL)
	}

	logger.Info("application initialized")
	return g, nil
}

// initAudio starts the speaker. Audio failures are not fatal; the manager
// stays uninitialized and ripples play silently.
func (g *Game) initAudio() *audio.Manager {
	m := audio.New()
	m.SetMasterVolume(g.config.Audio.MasterVolume)
	m.SetMuted(g.config.Audio.Muted)
	if !g.config.Audio.Enabled {
		return m
	}
	if err := m.Init(); err != nil {
		logger.Warn("audio unavailable", zap.Error(err))
	}
	return m
}

// Pipeline exposes the ripple pipeline, e.g. for a tuning panel.
func (g *Game) Pipeline() *ripple.Pipeline {
	return g.pipeline
}

// Run starts the main loop.
func (g *Game) Run() error {
	g.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting main loop")

	for g.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		if g.input.Update() {
			// Quit event received
			g.running = false
			break
		}

		for _, event := range g.input.Events() {
			if err := g.handleEvent(event); err != nil {
				return err
			}
		}

		// 2. Render
		g.renderer.Begin()
		g.pipeline.Frame()

		// 3. Present (swap buffers)
		g.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
				zap.Stringer("load", g.pipeline.LoadState()),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (g *Game) handleEvent(event input.Event) error {
	switch event.Type {
	case input.EventWindowResize:
		// SIZE_CHANGED carries window coordinates; the GL surface is
		// measured in pixels.
		width, height := g.window.DrawableSize()
		if err := g.pipeline.OnResize(width, height); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		g.renderer.Resize(width, height)

	case input.EventKeyDown:
		g.handleKey(event.Key)

	default:
		sx, sy := g.window.PixelScale()
		if kind, x, y, ok := pointerEvent(event, sx, sy); ok {
			g.pipeline.OnPointerEvent(kind, x, y)
		}
	}
	return nil
}

func (g *Game) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		g.running = false

	case sdl.SCANCODE_F12:
		g.screenshot()

	case sdl.SCANCODE_M:
		muted := !g.audio.IsMuted()
		g.audio.SetMuted(muted)
		logger.Info("audio muted", zap.Bool("muted", muted))

	case sdl.SCANCODE_R:
		// Reload the configured background with a crossfade.
		if g.config.Background.URL != "" {
			g.pipeline.SetBackgroundImage(g.config.Background.URL)
		}
	}
}

func (g *Game) screenshot() {
	// Render a fresh frame so the read-back matches what is on screen.
	g.renderer.Begin()
	g.pipeline.Frame()
	filename, err := g.capture.CaptureFromImage(g.ripples.ReadFrame())
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", filename))
}

// Close cleans up application resources.
func (g *Game) Close() {
	logger.Info("closing application")

	if g.pipeline != nil {
		g.pipeline.Close()
	} else if g.ripples != nil {
		g.ripples.Release()
	}
	if g.audio != nil {
		g.audio.Close()
	}
	if g.assets != nil {
		g.assets.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
