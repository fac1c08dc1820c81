// Package ripple implements the water-ripple rendering core: a ping-pong
// wave simulation, a refracting compositor with chromatic aberration and a
// specular glint, an asynchronous background loader with crossfades, and the
// pointer adapter that feeds impulses into the simulation.
//
// The per-pixel kernels are plain Go loops (CPUBackend). The same contract is
// implemented on the GPU by scene.RippleRenderer.
package ripple

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/logger"
)

// Background is a background image and its texture. Texture is the
// placeholder until the image has been uploaded.
type Background struct {
	URL     string
	Texture Texture
	Loaded  bool
}

// Options configures a Pipeline.
type Options struct {
	Width, Height      int
	Params             Params
	FallbackURL        string
	TransitionDuration time.Duration
	FetchTimeout       time.Duration
	Fetch              FetchFunc
	Listener           RippleListener
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

// Pipeline drives one simulate→composite iteration per frame. Apart from
// SetTuningParameter and Parameters, all methods must be called from the
// render thread.
type Pipeline struct {
	backend     Backend
	loader      *Loader
	interaction Interaction
	transition  Transition
	duration    time.Duration
	listener    RippleListener
	now         func() time.Time

	mu     sync.Mutex
	params Params

	rc       RenderContext
	current  *Background
	incoming *Background
	// target receives the completion of the latest load request.
	target *Background
}

// New allocates the simulation buffers and returns a ready pipeline. Any
// error here (precision, allocation) is fatal for the effect.
func New(backend Backend, opts Options) (*Pipeline, error) {
	if opts.Fetch == nil {
		return nil, fmt.Errorf("ripple: no fetch function configured")
	}
	if err := backend.Resize(opts.Width, opts.Height); err != nil {
		return nil, fmt.Errorf("initializing simulation buffers: %w", err)
	}

	p := &Pipeline{
		backend:  backend,
		loader:   NewLoader(opts.Fetch, backend, opts.FallbackURL, opts.FetchTimeout),
		duration: opts.TransitionDuration,
		listener: opts.Listener,
		now:      opts.Now,
		params:   opts.Params,
		rc: RenderContext{
			Width:  opts.Width,
			Height: opts.Height,
		},
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.interaction.SetViewportHeight(opts.Height)

	logger.Info("ripple pipeline initialized",
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return p, nil
}

// SetBackgroundImage starts loading url. When an image is already shown the
// new one crossfades in once it has loaded, and a failed load leaves the
// shown image in place; otherwise it replaces the current one directly.
func (p *Pipeline) SetBackgroundImage(url string) {
	p.loader.Request(url)
	bg := &Background{URL: url, Texture: p.backend.Placeholder()}

	if p.current != nil && p.current.Loaded {
		if p.transition.Active && p.incoming != nil {
			if p.incoming.Loaded {
				p.promote()
			} else {
				p.release(p.incoming)
			}
		}
		p.incoming = bg
		p.transition.Begin(p.now(), p.duration)
	} else {
		p.release(p.current)
		p.release(p.incoming)
		p.current = bg
		p.incoming = nil
		p.transition.Reset()
	}
	p.target = bg
}

// SetTuningParameter updates a tunable; it takes effect on the next frame.
// Safe for concurrent use.
func (p *Pipeline) SetTuningParameter(name string, value float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.Set(name, value)
}

// Parameters returns the current tunables. Safe for concurrent use.
func (p *Pipeline) Parameters() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// OnPointerEvent feeds a pointer event in viewport coordinates (origin
// top-left). Presses notify the ripple listener.
func (p *Pipeline) OnPointerEvent(kind PointerKind, x, y float32) {
	if !p.interaction.OnPointer(kind, x, y) || p.listener == nil {
		return
	}
	params := p.Parameters().Normalized()
	p.listener.RippleTriggered(RippleEvent{
		SizePixels: params.RippleSize,
		Strength:   params.RippleStrength,
	})
}

// OnResize reallocates the simulation at the new size. The wave state is
// discarded and the next frame is a cold start.
func (p *Pipeline) OnResize(width, height int) error {
	if width == p.rc.Width && height == p.rc.Height {
		return nil
	}
	if err := p.backend.Resize(width, height); err != nil {
		return fmt.Errorf("resizing simulation to %dx%d: %w", width, height, err)
	}
	p.rc.Width, p.rc.Height = width, height
	p.rc.FrameIndex = 0
	p.interaction.SetViewportHeight(height)
	logger.Debug("simulation reset on resize",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// Frame renders one frame.
func (p *Pipeline) Frame() {
	if c, ok := p.loader.Poll(); ok {
		p.complete(c)
	}
	// The crossfade clock only runs once the incoming image is on the GPU;
	// until then it holds at progress 0 over the current image.
	if p.incoming == nil || p.incoming.Loaded {
		if p.transition.Advance(p.now()) {
			p.promote()
		}
	}

	p.rc.Params = p.Parameters().Normalized()
	p.rc.Impulse = p.interaction.Impulse()

	p.backend.Simulate(&p.rc)

	var current, incoming Texture
	if p.current != nil {
		current = p.current.Texture
	} else {
		current = p.backend.Placeholder()
	}
	if p.transition.Active && p.incoming != nil {
		incoming = p.incoming.Texture
	}
	p.backend.Composite(&p.rc, current, incoming, p.transition)

	p.rc.FrameIndex++
}

func (p *Pipeline) complete(c Completion) {
	bg := p.target
	p.target = nil
	if c.Err != nil {
		// A failed first load keeps the placeholder bound; a failed
		// crossfade keeps the current image.
		if bg != nil && bg == p.incoming {
			p.release(p.incoming)
			p.incoming = nil
			p.transition.Reset()
		}
		return
	}
	if bg == nil {
		p.backend.ReleaseTexture(c.Texture)
		return
	}
	bg.Texture = c.Texture
	bg.Loaded = true
	if bg == p.incoming && p.transition.Active {
		p.transition.Restart(p.now())
	}
}

// promote makes the incoming background current and frees the old one.
func (p *Pipeline) promote() {
	if p.incoming == nil {
		return
	}
	p.release(p.current)
	p.current = p.incoming
	p.incoming = nil
}

func (p *Pipeline) release(bg *Background) {
	if bg == nil || bg.Texture == nil {
		return
	}
	p.backend.ReleaseTexture(bg.Texture)
	bg.Texture = nil
	bg.Loaded = false
}

// Current returns a copy of the displayed background, if any.
func (p *Pipeline) Current() (Background, bool) {
	if p.current == nil {
		return Background{}, false
	}
	return *p.current, true
}

// Incoming returns a copy of the background fading in, if any.
func (p *Pipeline) Incoming() (Background, bool) {
	if p.incoming == nil {
		return Background{}, false
	}
	return *p.incoming, true
}

// Transition returns the crossfade state.
func (p *Pipeline) Transition() Transition { return p.transition }

// LoadState returns the loader state.
func (p *Pipeline) LoadState() LoadState { return p.loader.State() }

// Impulse returns the current pointer impulse.
func (p *Pipeline) Impulse() Impulse { return p.interaction.Impulse() }

// FrameIndex returns the index of the next frame to render.
func (p *Pipeline) FrameIndex() int { return p.rc.FrameIndex }

// Size returns the simulation size.
func (p *Pipeline) Size() (width, height int) { return p.rc.Width, p.rc.Height }

// Close cancels pending loads and releases every texture and buffer.
func (p *Pipeline) Close() {
	p.loader.Close()
	p.release(p.current)
	p.release(p.incoming)
	p.current, p.incoming, p.target = nil, nil, nil
	p.backend.Release()
}
