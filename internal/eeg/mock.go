package eeg

import (
	"fmt"
	"time"
)

// mockChunk is how long Acquire sleeps while waiting for wall-clock
// time to produce new samples.
const mockChunk = 20 * time.Millisecond

// MockReceiver is an in-process Receiver producing the synthetic signal
// at wall-clock rate. Useful for running the demo without any hardware
// or server.
type MockReceiver struct {
	info      Info
	synth     *Synth
	buf       *winBuffer
	start     time.Time
	generated int64
}

// NewMock returns a 250 Hz mock stream with a winsize-second window.
func NewMock(name string, winsize float64) (*MockReceiver, error) {
	if winsize <= 0 {
		return nil, fmt.Errorf("eeg: window duration must be positive, got %g", winsize)
	}
	const rate = 250.0
	synth := NewSynth(rate)
	size := int(winsize * rate)
	return &MockReceiver{
		info:  Info{Name: name, Rate: rate, Channels: synth.Channels},
		synth: synth,
		buf:   newWinBuffer(len(synth.Channels), size, rate),
		start: time.Now(),
	}, nil
}

func (m *MockReceiver) Acquire() error {
	fresh := false
	for {
		target := int64(time.Since(m.start).Seconds() * m.info.Rate)
		for m.generated < target {
			m.buf.push(m.synth.Sample(m.generated))
			m.generated++
			fresh = true
		}
		if fresh && m.buf.full() {
			return nil
		}
		time.Sleep(mockChunk)
	}
}

func (m *MockReceiver) Window() ([][]float64, []float64) { return m.buf.window() }

func (m *MockReceiver) Info() Info { return m.info }

func (m *MockReceiver) Close() error { return nil }
