// Package debug provides frame capture utilities.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotCapture writes rendered frames as PNG files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for screenshots.
func (sc *ScreenshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

// OutputDir returns the directory screenshots are written to.
func (sc *ScreenshotCapture) OutputDir() string {
	return sc.outputDir
}

// CaptureFromImage saves img under a timestamped name.
func (sc *ScreenshotCapture) CaptureFromImage(img image.Image) (string, error) {
	return sc.save(sc.GenerateFilename(), img)
}

// CaptureFrame saves img under a name numbered by frame, for sequences.
func (sc *ScreenshotCapture) CaptureFrame(img image.Image, frame int) (string, error) {
	return sc.save(sc.FrameFilename(frame), img)
}

// GenerateFilename generates a timestamped filename without saving.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	return sc.path(fmt.Sprintf("%s_%s.png", sc.prefix, timestamp))
}

// FrameFilename returns the filename CaptureFrame uses for frame.
func (sc *ScreenshotCapture) FrameFilename(frame int) string {
	return sc.path(fmt.Sprintf("%s_%05d.png", sc.prefix, frame))
}

func (sc *ScreenshotCapture) path(name string) string {
	if sc.outputDir != "" {
		return filepath.Join(sc.outputDir, name)
	}
	return name
}

func (sc *ScreenshotCapture) save(filename string, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("empty image")
	}

	// Create output directory if needed
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return filename, nil
}
