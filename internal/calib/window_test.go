package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullAfterCapacityAppends(t *testing.T) {
	w := NewWindow()
	for i := 0; i < Capacity; i++ {
		assert.False(t, w.Full(), "window reported full after %d appends", i)
		w.Append(float64(i))
	}
	assert.True(t, w.Full())
	assert.Equal(t, Capacity, w.Count())
}

func TestRangeBeforeFull(t *testing.T) {
	w := NewWindow()
	for i := 0; i < Capacity-1; i++ {
		w.Append(1.0)
	}
	_, _, err := w.Range(5, 95)
	require.ErrorIs(t, err, ErrNotFull)
}

func TestWrapAroundKeepsMostRecent(t *testing.T) {
	// After 250 appends of 0..249 the buffer must hold exactly 150..249.
	w := NewWindow()
	for i := 0; i < 250; i++ {
		w.Append(float64(i))
	}
	low, high, err := w.Range(0, 100)
	require.NoError(t, err)
	assert.Equal(t, 150.0, low)
	assert.Equal(t, 249.0, high)
}

func TestRangeMonotonic(t *testing.T) {
	w := NewWindow()
	for i := 0; i < Capacity; i++ {
		w.Append(math.Sin(float64(i)) * 7)
	}
	low, high, err := w.Range(5, 95)
	require.NoError(t, err)
	assert.LessOrEqual(t, low, high)
}

func TestRangeIdenticalValues(t *testing.T) {
	w := NewWindow()
	for i := 0; i < Capacity; i++ {
		w.Append(5.0)
	}
	low, high, err := w.Range(5, 95)
	require.NoError(t, err)
	assert.Equal(t, 5.0, low)
	assert.Equal(t, 5.0, high)
}

func TestRangeInterpolation(t *testing.T) {
	// 0, 0.1, ..., 9.9: the 5th percentile sits at rank 4.95 and the
	// 95th at rank 94.05.
	w := NewWindow()
	for i := 0; i < Capacity; i++ {
		w.Append(float64(i) / 10)
	}
	low, high, err := w.Range(5, 95)
	require.NoError(t, err)
	assert.InDelta(t, 0.495, low, 1e-12)
	assert.InDelta(t, 9.405, high, 1e-12)
}

func TestRangeRejectsBadPercentiles(t *testing.T) {
	w := NewWindow()
	for i := 0; i < Capacity; i++ {
		w.Append(float64(i))
	}
	_, _, err := w.Range(-1, 95)
	assert.Error(t, err)
	_, _, err = w.Range(5, 101)
	assert.Error(t, err)
}
