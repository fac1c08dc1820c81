// Package audio plays synthesized water-drop sounds for ripples.
package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/Faultbox/marina-ripple/internal/logger"
	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// maxVoices bounds overlapping drops; presses beyond it are skipped.
const maxVoices = 8

// Manager mixes ripple sounds into the speaker. It implements
// ripple.RippleListener.
type Manager struct {
	mu sync.RWMutex

	// State
	initialized bool
	muted       bool
	sampleRate  beep.SampleRate

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	sfxVolLevel  float64

	// SFX mixer for concurrent drops
	sfxMixer *beep.Mixer
}

// New creates a new audio manager.
func New() *Manager {
	return &Manager{
		masterVolume: 1.0,
		sfxVolLevel:  1.0,
		sampleRate:   DefaultSampleRate,
		sfxMixer:     &beep.Mixer{},
	}
}

// Init initializes the audio system.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(m.sfxMixer)

	m.initialized = true
	logger.Info("audio initialized", zap.Int("sample_rate", int(m.sampleRate)))
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}

// IsInitialized returns whether the audio system is initialized.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMuted silences or restores ripple sounds.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// IsMuted reports whether ripple sounds are silenced.
func (m *Manager) IsMuted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// SetSFXVolume sets the SFX volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// GetSFXVolume returns the SFX volume.
func (m *Manager) GetSFXVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sfxVolLevel
}

// RippleTriggered implements ripple.RippleListener by playing a drop shaped
// by the ripple's size and strength.
func (m *Manager) RippleTriggered(ev ripple.RippleEvent) {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.masterVolume * m.sfxVolLevel
	muted := m.muted
	rate := m.sampleRate
	m.mu.RUnlock()

	if !initialized || muted || vol <= 0 {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	if m.sfxMixer.Len() >= maxVoices {
		logger.Debug("dropping ripple sound, too many voices")
		return
	}
	m.sfxMixer.Add(newVolume(NewDrop(DropFor(ev), rate), vol))
}

// newVolume wraps s with a linear gain in [0, 1].
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	exp, silent := gainExponent(vol)
	return &effects.Volume{Streamer: s, Base: 2, Volume: exp, Silent: silent}
}

// gainExponent converts a linear gain to a base-2 exponent for
// effects.Volume.
func gainExponent(vol float64) (exp float64, silent bool) {
	if vol <= 0 {
		return 0, true
	}
	return math.Log2(vol), false
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

var _ ripple.RippleListener = (*Manager)(nil)
