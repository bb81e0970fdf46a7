package eeg

import (
	"math"
	"math/rand"
)

// Synth generates a synthetic 8-channel EEG-like signal: a 10 Hz alpha
// component whose amplitude swells and fades over ~20 s on the occipital
// channels, a weaker alpha elsewhere, plus broadband noise. Used by the
// mock receiver and the stream simulator.
type Synth struct {
	Rate     float64
	Channels []string
	rng      *rand.Rand
}

// NewSynth returns a generator at rate Hz over the default montage.
func NewSynth(rate float64) *Synth {
	return &Synth{
		Rate:     rate,
		Channels: append([]string(nil), DefaultMontage...),
		rng:      rand.New(rand.NewSource(42)),
	}
}

// Sample returns the multi-channel sample at index i.
func (s *Synth) Sample(i int64) []float64 {
	t := float64(i) / s.Rate
	swell := 0.5 + 0.5*math.Sin(2*math.Pi*t/20)
	out := make([]float64, len(s.Channels))
	for ch, name := range s.Channels {
		amp := 4.0
		if name == "O1" || name == "O2" {
			amp = 6 + 24*swell
		}
		phase := float64(ch) * math.Pi / 4
		out[ch] = amp*math.Sin(2*math.Pi*10*t+phase) + 2*s.rng.NormFloat64()
	}
	return out
}
