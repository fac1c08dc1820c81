package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// Drop describes a synthesized water drop: a sine sweep under a short
// attack and an exponential decay.
type Drop struct {
	StartFreq float64
	EndFreq   float64
	Duration  time.Duration
	Gain      float64
}

const (
	referenceSize = 20.0   // ripple size that maps to referenceFreq
	referenceFreq = 1100.0 // Hz
	minFreq       = 250.0
	maxFreq       = 2600.0
	dropAttack    = 3 * time.Millisecond
)

// DropFor maps a ripple to a drop. Bigger ripples sound lower and longer;
// stronger ones sound louder.
func DropFor(ev ripple.RippleEvent) Drop {
	size := float64(ev.SizePixels)
	if size <= 0 {
		size = referenceSize
	}
	freq := clamp(referenceFreq*math.Sqrt(referenceSize/size), minFreq, maxFreq)

	dur := time.Duration(clamp(80+size*2, 80, 300)) * time.Millisecond

	return Drop{
		StartFreq: freq,
		EndFreq:   freq * 0.55,
		Duration:  dur,
		Gain:      clamp(0.2+0.15*float64(ev.Strength), 0.05, 1),
	}
}

// dropStreamer renders a Drop sample by sample.
type dropStreamer struct {
	drop     Drop
	rate     beep.SampleRate
	total    int
	attack   int
	position int
	phase    float64
}

// NewDrop returns a finite mono streamer playing d.
func NewDrop(d Drop, rate beep.SampleRate) beep.Streamer {
	return &dropStreamer{
		drop:   d,
		rate:   rate,
		total:  rate.N(d.Duration),
		attack: rate.N(dropAttack),
	}
}

func (s *dropStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.position >= s.total {
		return 0, false
	}
	tau := float64(s.total) / 5
	for i := range samples {
		if s.position >= s.total {
			return i, true
		}
		t := float64(s.position) / float64(s.total)

		// Exponential pitch sweep from StartFreq to EndFreq.
		freq := s.drop.StartFreq * math.Pow(s.drop.EndFreq/s.drop.StartFreq, t)

		env := math.Exp(-float64(s.position) / tau)
		if s.position < s.attack && s.attack > 0 {
			env *= float64(s.position) / float64(s.attack)
		}

		val := math.Sin(2*math.Pi*s.phase) * env * s.drop.Gain
		samples[i][0] = val
		samples[i][1] = val

		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *dropStreamer) Err() error { return nil }
