package ripple

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// fakeFetcher serves canned results per URL. URLs listed in block wait until
// released or cancelled.
type fakeFetcher struct {
	mu     sync.Mutex
	images map[string]image.Image
	block  map[string]chan struct{}
	calls  map[string]int
	total  atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		images: make(map[string]image.Image),
		block:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) serve(url string, img image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[url] = img
}

func (f *fakeFetcher) hold(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[url] = ch
	return ch
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[url]++
	wait := f.block[url]
	img, ok := f.images[url]
	f.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("not found: " + url)
	}
	return img, nil
}

func pollUntil(t *testing.T, l *Loader) Completion {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok := l.Poll(); ok {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no completion before deadline (state %v)", l.State())
	return Completion{}
}

func TestLoaderSuccess(t *testing.T) {
	f := newFakeFetcher()
	f.serve("a.png", testImage(4, 2))
	backend := NewCPUBackend(color.Black)
	l := NewLoader(f.Fetch, backend, "", 0)
	defer l.Close()

	if l.State() != LoadIdle {
		t.Fatalf("initial state = %v, want idle", l.State())
	}
	gen := l.Request("a.png")
	if l.State() != LoadLoading {
		t.Errorf("state after Request = %v, want loading", l.State())
	}

	c := pollUntil(t, l)
	if c.Err != nil {
		t.Fatalf("completion error: %v", c.Err)
	}
	if c.Generation != gen || c.URL != "a.png" {
		t.Errorf("completion = gen %d url %s, want gen %d url a.png", c.Generation, c.URL, gen)
	}
	if w, h := c.Texture.Size(); w != 4 || h != 2 {
		t.Errorf("texture size = %dx%d, want 4x2", w, h)
	}
	if l.State() != LoadReady {
		t.Errorf("state = %v, want ready", l.State())
	}
	if backend.LiveTextures() != 1 {
		t.Errorf("live textures = %d, want 1", backend.LiveTextures())
	}
}

func TestLoaderDiscardsStale(t *testing.T) {
	f := newFakeFetcher()
	f.serve("a.png", testImage(1, 1))
	f.serve("b.png", testImage(2, 2))
	releaseA := f.hold("a.png")
	backend := NewCPUBackend(color.Black)
	l := NewLoader(f.Fetch, backend, "", 0)
	defer l.Close()

	l.Request("a.png")
	genB := l.Request("b.png")

	c := pollUntil(t, l)
	if c.URL != "b.png" || c.Generation != genB {
		t.Fatalf("completion for %s gen %d, want b.png gen %d", c.URL, c.Generation, genB)
	}

	close(releaseA)
	time.Sleep(20 * time.Millisecond)
	if c, ok := l.Poll(); ok {
		t.Errorf("stale completion delivered: %+v", c)
	}
	if l.State() != LoadReady || l.URL() != "b.png" {
		t.Errorf("state = %v url %s, want ready b.png", l.State(), l.URL())
	}
	if backend.LiveTextures() != 1 {
		t.Errorf("live textures = %d, want 1", backend.LiveTextures())
	}
}

func TestLoaderFallback(t *testing.T) {
	tests := []struct {
		name        string
		serveFB     bool
		request     string
		wantState   LoadState
		wantURL     string
		wantFetches int32
	}{
		{"fallback succeeds", true, "missing.png", LoadReady, "fallback.png", 2},
		{"fallback fails", false, "missing.png", LoadFailed, "fallback.png", 2},
		{"fallback itself fails once", false, "fallback.png", LoadFailed, "fallback.png", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			if tt.serveFB {
				f.serve("fallback.png", testImage(1, 1))
			}
			l := NewLoader(f.Fetch, NewCPUBackend(color.Black), "fallback.png", 0)
			defer l.Close()

			l.Request(tt.request)
			c := pollUntil(t, l)

			if l.State() != tt.wantState {
				t.Errorf("state = %v, want %v", l.State(), tt.wantState)
			}
			if c.URL != tt.wantURL {
				t.Errorf("completion url = %s, want %s", c.URL, tt.wantURL)
			}
			if (c.Err != nil) != (tt.wantState == LoadFailed) {
				t.Errorf("completion err = %v for state %v", c.Err, tt.wantState)
			}
			if got := f.total.Load(); got != tt.wantFetches {
				t.Errorf("fetches = %d, want %d", got, tt.wantFetches)
			}
		})
	}
}

func TestLoaderNoFallback(t *testing.T) {
	f := newFakeFetcher()
	l := NewLoader(f.Fetch, NewCPUBackend(color.Black), "", 0)
	defer l.Close()

	l.Request("missing.png")
	c := pollUntil(t, l)
	if c.Err == nil || l.State() != LoadFailed {
		t.Errorf("got err %v state %v, want failure", c.Err, l.State())
	}
	if f.count("missing.png") != 1 {
		t.Errorf("fetched %d times, want 1", f.count("missing.png"))
	}
}

func TestLoaderTimeout(t *testing.T) {
	f := newFakeFetcher()
	f.serve("slow.png", testImage(1, 1))
	release := f.hold("slow.png")
	defer close(release)

	l := NewLoader(f.Fetch, NewCPUBackend(color.Black), "", 10*time.Millisecond)
	defer l.Close()

	l.Request("slow.png")
	c := pollUntil(t, l)
	if !errors.Is(c.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", c.Err)
	}
	if l.State() != LoadFailed {
		t.Errorf("state = %v, want failed", l.State())
	}
}

func TestLoaderNoTimeoutStaysLoading(t *testing.T) {
	f := newFakeFetcher()
	f.serve("hung.png", testImage(1, 1))
	release := f.hold("hung.png")

	l := NewLoader(f.Fetch, NewCPUBackend(color.Black), "", 0)
	l.Request("hung.png")
	time.Sleep(20 * time.Millisecond)
	if _, ok := l.Poll(); ok {
		t.Error("hung load completed")
	}
	if l.State() != LoadLoading {
		t.Errorf("state = %v, want loading", l.State())
	}
	l.Close()
	close(release)
}

func TestLoadStateString(t *testing.T) {
	tests := map[LoadState]string{
		LoadIdle:     "idle",
		LoadLoading:  "loading",
		LoadReady:    "ready",
		LoadFailed:   "failed",
		LoadState(7): "LoadState(7)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
