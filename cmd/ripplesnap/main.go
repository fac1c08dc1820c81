// ripplesnap renders the ripple effect headlessly on the CPU and writes the
// frames as PNG files. A pointer is dragged across the surface along a
// scripted path.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/assets"
	"github.com/Faultbox/marina-ripple/internal/config"
	"github.com/Faultbox/marina-ripple/internal/engine/debug"
	"github.com/Faultbox/marina-ripple/internal/logger"
	"github.com/Faultbox/marina-ripple/internal/ripple"
)

var (
	flagFrames      = flag.Int("frames", 120, "Number of frames to write")
	flagEvery       = flag.Int("every", 1, "Write every n-th frame")
	flagOut         = flag.String("out", "frames", "Output directory")
	flagLoadTimeout = flag.Duration("load-timeout", 10*time.Second, "Maximum time to wait for the background")
	flagNoDrag      = flag.Bool("no-drag", false, "Render without pointer input")
	flagPressEvery  = flag.Int("press-every", 30, "Frames between scripted presses")
)

// frameStep is the simulated time between frames.
const frameStep = time.Second / 60

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("ripplesnap failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if *flagFrames <= 0 || *flagEvery <= 0 {
		return errors.New("frames and every must be positive")
	}

	placeholder, err := cfg.Background.Placeholder()
	if err != nil {
		return err
	}

	am := assets.NewManager(&http.Client{}, cfg.Background.CacheEntries)
	defer am.Close()

	clock := time.Unix(0, 0)
	backend := ripple.NewCPUBackend(placeholder)
	p, err := ripple.New(backend, ripple.Options{
		Width:              cfg.Graphics.Width,
		Height:             cfg.Graphics.Height,
		Params:             cfg.Ripple,
		FallbackURL:        cfg.Background.FallbackURL,
		TransitionDuration: cfg.Background.TransitionDuration,
		FetchTimeout:       cfg.Background.FetchTimeout,
		Fetch:              am.FetchImage,
		Now:                func() time.Time { return clock },
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if cfg.Background.URL != "" {
		p.SetBackgroundImage(cfg.Background.URL)
		waitForBackground(p, *flagLoadTimeout)
	}

	capture := debug.NewScreenshotCapture(*flagOut, cfg.Capture.Prefix)
	drag := newDragScript(cfg.Graphics.Width, cfg.Graphics.Height, *flagPressEvery)

	written := 0
	for frame := 0; written < *flagFrames; frame++ {
		if !*flagNoDrag {
			for _, ev := range drag.eventsAt(frame) {
				p.OnPointerEvent(ev.kind, ev.x, ev.y)
			}
		}

		p.Frame()
		clock = clock.Add(frameStep)

		if frame%*flagEvery != 0 {
			continue
		}
		if _, err := capture.CaptureFrame(backend.Surface(), written); err != nil {
			return fmt.Errorf("writing frame %d: %w", written, err)
		}
		written++
	}

	logger.Info("frames written",
		zap.Int("count", written),
		zap.String("dir", *flagOut),
	)
	return nil
}

// waitForBackground renders idle frames until the loader settles so the
// captured sequence starts on the real image.
func waitForBackground(p *ripple.Pipeline, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for p.LoadState() == ripple.LoadLoading && time.Now().Before(deadline) {
		p.Frame()
		time.Sleep(5 * time.Millisecond)
	}
	// One more frame to bind the completed texture.
	p.Frame()
	logger.Info("background settled", zap.Stringer("state", p.LoadState()))
}

type pointerStep struct {
	kind ripple.PointerKind
	x, y float32
}

// dragScript moves the pointer along a Lissajous curve and presses it every
// pressEvery frames, releasing a few frames later.
type dragScript struct {
	width, height float64
	pressEvery    int
}

func newDragScript(width, height, pressEvery int) dragScript {
	if pressEvery <= 0 {
		pressEvery = 30
	}
	return dragScript{width: float64(width), height: float64(height), pressEvery: pressEvery}
}

func (d dragScript) position(frame int) (float32, float32) {
	t := float64(frame) / 60
	x := d.width * (0.5 + 0.35*math.Sin(t*1.3))
	y := d.height * (0.5 + 0.35*math.Sin(t*2.1+0.5))
	return float32(x), float32(y)
}

func (d dragScript) eventsAt(frame int) []pointerStep {
	x, y := d.position(frame)
	events := []pointerStep{{kind: ripple.PointerMove, x: x, y: y}}
	switch frame % d.pressEvery {
	case 0:
		events = append(events, pointerStep{kind: ripple.PointerDown, x: x, y: y})
	case d.pressEvery / 3:
		events = append(events, pointerStep{kind: ripple.PointerUp, x: x, y: y})
	}
	return events
}
