package ripple

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/logger"
)

// LoadState is the state of the background image loader.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadReady
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// FetchFunc fetches and decodes the image behind url. It runs off the render
// thread and should honour ctx cancellation.
type FetchFunc func(ctx context.Context, url string) (image.Image, error)

// TextureFactory creates and releases background textures. All methods are
// called on the render thread.
type TextureFactory interface {
	NewTexture(img image.Image) (Texture, error)
	// Placeholder returns the shared 1×1 texture shown while nothing is loaded.
	Placeholder() Texture
	// ReleaseTexture frees tex. Releasing the placeholder is a no-op.
	ReleaseTexture(tex Texture)
}

// Completion reports the final outcome of the latest request.
type Completion struct {
	Generation uint64
	URL        string
	Texture    Texture
	Err        error
}

type fetchResult struct {
	gen uint64
	url string
	img image.Image
	err error
}

// Loader fetches background images asynchronously and uploads them on the
// render thread. Every request bumps a generation counter; results carrying
// an older generation are dropped, so the last request always wins.
type Loader struct {
	fetch       FetchFunc
	textures    TextureFactory
	fallbackURL string
	timeout     time.Duration

	state   LoadState
	gen     uint64
	url     string
	cancel  context.CancelFunc
	results chan fetchResult
	closed  chan struct{}
	done    bool
}

// NewLoader creates an idle loader. A zero timeout leaves fetches unbounded.
func NewLoader(fetch FetchFunc, textures TextureFactory, fallbackURL string, timeout time.Duration) *Loader {
	return &Loader{
		fetch:       fetch,
		textures:    textures,
		fallbackURL: fallbackURL,
		timeout:     timeout,
		results:     make(chan fetchResult, 8),
		closed:      make(chan struct{}),
	}
}

// State returns the loader state.
func (l *Loader) State() LoadState { return l.state }

// Generation returns the generation of the latest request.
func (l *Loader) Generation() uint64 { return l.gen }

// URL returns the URL currently being fetched or last fetched.
func (l *Loader) URL() string { return l.url }

// Request starts loading url and supersedes any pending request.
func (l *Loader) Request(url string) uint64 {
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.state = LoadLoading
	l.start(url)
	logger.Debug("background load requested",
		zap.String("url", url),
		zap.Uint64("generation", l.gen),
	)
	return l.gen
}

func (l *Loader) start(url string) {
	l.url = url
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), l.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	l.cancel = cancel

	gen := l.gen
	go func() {
		img, err := l.fetch(ctx, url)
		res := fetchResult{gen: gen, url: url, img: img, err: err}
		select {
		case l.results <- res:
		case <-l.closed:
		}
	}()
}

// Poll drains finished fetches without blocking. It returns the completion
// of the latest request once it is Ready or Failed.
func (l *Loader) Poll() (Completion, bool) {
	for {
		select {
		case res := <-l.results:
			if c, ok := l.handle(res); ok {
				return c, true
			}
		default:
			return Completion{}, false
		}
	}
}

func (l *Loader) handle(res fetchResult) (Completion, bool) {
	if res.gen != l.gen || res.url != l.url {
		logger.Debug("discarding stale background load",
			zap.String("url", res.url),
			zap.Uint64("generation", res.gen),
			zap.Uint64("current", l.gen),
		)
		return Completion{}, false
	}

	err := res.err
	var tex Texture
	if err == nil {
		tex, err = l.textures.NewTexture(res.img)
	}
	if err == nil {
		l.finish()
		l.state = LoadReady
		logger.Info("background loaded", zap.String("url", res.url))
		return Completion{Generation: res.gen, URL: res.url, Texture: tex}, true
	}

	if l.fallbackURL != "" && res.url != l.fallbackURL {
		logger.Warn("background load failed, trying fallback",
			zap.String("url", res.url),
			zap.String("fallback", l.fallbackURL),
			zap.Error(err),
		)
		l.finish()
		l.start(l.fallbackURL)
		return Completion{}, false
	}

	l.finish()
	l.state = LoadFailed
	logger.Warn("background load failed, keeping placeholder",
		zap.String("url", res.url),
		zap.Error(err),
	)
	return Completion{Generation: res.gen, URL: res.url, Err: err}, true
}

func (l *Loader) finish() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Close cancels any pending fetch. Results still in flight are dropped.
func (l *Loader) Close() {
	l.finish()
	if !l.done {
		l.done = true
		close(l.closed)
	}
}
