// Package calib maintains the rolling history of metric values used to
// auto-range the feedback display.
package calib

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Capacity is the number of metric samples kept for range estimation.
// The feedback loop stays in warm-up until this many samples exist.
const Capacity = 100

// ErrNotFull is returned by Range when fewer than Capacity samples have
// been appended. Callers must gate Range behind Full.
var ErrNotFull = errors.New("calib: window is not full yet")

// Window is a fixed-capacity ring buffer of the most recent metric values.
// Slots start out as NaN so a partially filled buffer can never be
// mistaken for real history.
type Window struct {
	values [Capacity]float64
	count  int
}

// NewWindow returns an empty calibration window.
func NewWindow() *Window {
	w := &Window{}
	for i := range w.values {
		w.values[i] = math.NaN()
	}
	return w
}

// Append stores v, overwriting the oldest value once the buffer has
// wrapped around.
func (w *Window) Append(v float64) {
	w.values[w.count%Capacity] = v
	w.count++
}

// Count returns the total number of values appended so far.
func (w *Window) Count() int { return w.count }

// Full reports whether at least Capacity values have been appended.
func (w *Window) Full() bool { return w.count >= Capacity }

// Range returns the lowPct-th and highPct-th percentile of the stored
// values using linear-interpolation percentiles. It is only valid on a
// full window.
func (w *Window) Range(lowPct, highPct float64) (low, high float64, err error) {
	if !w.Full() {
		return 0, 0, ErrNotFull
	}
	for _, p := range []float64{lowPct, highPct} {
		if p < 0 || p > 100 {
			return 0, 0, fmt.Errorf("calib: percentile %v out of range [0, 100]", p)
		}
	}
	sorted := make([]float64, Capacity)
	copy(sorted, w.values[:])
	sort.Float64s(sorted)
	return percentile(sorted, lowPct), percentile(sorted, highPct), nil
}

// percentile computes the p-th percentile of a sorted slice, with linear
// interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
