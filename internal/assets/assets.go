// Package assets fetches background image bytes from the network or disk
// and keeps recently used ones in memory.
package assets

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/engine/texture"
	"github.com/Faultbox/marina-ripple/internal/logger"
)

// MaxImageBytes caps a single download.
const MaxImageBytes = 64 << 20

// Manager resolves image URLs. http and https URLs are downloaded; file://
// URLs and bare paths are read from disk.
type Manager struct {
	client *http.Client
	cache  *Cache
}

// NewManager creates a manager that caches up to cacheEntries sources.
// A nil client uses http.DefaultClient.
func NewManager(client *http.Client, cacheEntries int) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{
		client: client,
		cache:  NewCache(cacheEntries),
	}
}

// Load returns the raw bytes behind rawURL.
func (m *Manager) Load(ctx context.Context, rawURL string) ([]byte, error) {
	if data, ok := m.cache.Get(rawURL); ok {
		return data, nil
	}

	data, err := m.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	m.cache.Set(rawURL, data)
	return data, nil
}

func (m *Manager) load(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare path (a one-letter scheme is a Windows drive).
		return readFile(rawURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return m.download(ctx, rawURL)
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		return readFile(p)
	default:
		return nil, fmt.Errorf("unsupported scheme %q in %s", u.Scheme, rawURL)
	}
}

func (m *Manager) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("fetching %s: body exceeds %d bytes", rawURL, MaxImageBytes)
	}

	logger.Debug("downloaded image",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// FetchImage loads and decodes the image behind rawURL. Its signature
// matches ripple.FetchFunc.
func (m *Manager) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	data, err := m.Load(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := texture.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	b := img.Bounds()
	logger.Debug("decoded image",
		zap.String("url", rawURL),
		zap.String("format", format),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
	)
	return img, nil
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache { return m.cache }

// Close drops every cached entry.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a small in-memory cache of fetched sources. When full, the
// oldest entry is evicted.
type Cache struct {
	mu      sync.Mutex
	data    map[string][]byte
	order   []string
	maxSize int

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache holding at most maxSize entries. maxSize <= 0
// disables caching.
func NewCache(maxSize int) *Cache {
	return &Cache{
		data:    make(map[string][]byte),
		maxSize: maxSize,
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key]; !ok {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.data, oldest)
		}
		c.order = append(c.order, key)
	}
	c.data[key] = data
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.order = nil
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
