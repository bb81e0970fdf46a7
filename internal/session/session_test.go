package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurotap/neuroloop/internal/calib"
	"github.com/neurotap/neuroloop/internal/eeg"
)

// fakeClock advances only when told to, so tests control session time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeReceiver hands out a tiny fixed window and can advance a clock
// per acquisition or fail after a number of calls.
type fakeReceiver struct {
	acquires int
	failAt   int // 0 = never
	clock    *fakeClock
	perCycle time.Duration
}

func (r *fakeReceiver) Acquire() error {
	r.acquires++
	if r.clock != nil {
		r.clock.advance(r.perCycle)
	}
	if r.failAt > 0 && r.acquires >= r.failAt {
		return errors.New("stream gone")
	}
	return nil
}

func (r *fakeReceiver) Window() ([][]float64, []float64) {
	data := make([][]float64, 8)
	for ch := range data {
		data[ch] = []float64{0, 0, 0, 0}
	}
	return data, []float64{0, 0.25, 0.5, 0.75}
}

func (r *fakeReceiver) Info() eeg.Info {
	return eeg.Info{Name: "fake", Rate: 4, Channels: eeg.DefaultMontage}
}

func (r *fakeReceiver) Close() error { return nil }

// scriptedMetric returns the scripted value for both channels, one
// value per cycle, repeating the final value once exhausted.
func scriptedMetric(values []float64) MetricFunc {
	i := 0
	return func(data [][]float64, fs float64) ([]float64, error) {
		v := values[len(values)-1]
		if i < len(values) {
			v = values[i]
		}
		i++
		return []float64{v, v}, nil
	}
}

// fakeActuator mirrors the wheel's lifecycle contract.
type fakeActuator struct {
	active bool
	starts int
	stops  int
	speeds []float64
}

func (a *fakeActuator) Start() error {
	if a.active {
		return errors.New("already started")
	}
	a.active = true
	a.starts++
	return nil
}

func (a *fakeActuator) Stop() error {
	if !a.active {
		return errors.New("already stopped")
	}
	a.active = false
	a.stops++
	return nil
}

func (a *fakeActuator) SetSpeed(v float64) error {
	a.speeds = append(a.speeds, v)
	return nil
}

func (a *fakeActuator) Active() bool { return a.active }

// newTestSession wires a session over fakes with a controllable clock.
// The clock advances perCycle on every acquisition.
func newTestSession(metrics []float64, duration, perCycle time.Duration) (*Session, *fakeReceiver, *fakeActuator) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	recv := &fakeReceiver{clock: clock, perCycle: perCycle}
	act := &fakeActuator{}
	s := &Session{
		Receiver: recv,
		Metric:   scriptedMetric(metrics),
		Wheel:    act,
		Channels: []string{"O1", "O2"},
		Duration: duration,
		now:      clock.now,
	}
	return s, recv, act
}

func TestWarmupGatesActuator(t *testing.T) {
	metrics := make([]float64, 110)
	for i := range metrics {
		metrics[i] = float64(i)
	}
	s, _, act := newTestSession(metrics, 5*time.Second, time.Second)

	require.NoError(t, s.Run())

	// Start exactly once, and only after 100 appends: the first speed
	// write happens on the same cycle as the start.
	assert.Equal(t, 1, act.starts)
	assert.Equal(t, 1, act.stops)
	assert.False(t, act.active)

	// Warm-up held the session clock: 100 cycles of 1 s each did not
	// consume the 5 s budget, so the active phase still ran ~5 cycles.
	require.NotEmpty(t, act.speeds)
	assert.InDelta(t, 6, len(act.speeds), 1)
}

func TestShortSessionNeverStarts(t *testing.T) {
	// Each cycle takes 3 s against a 2 s budget: the loop exits during
	// warm-up and teardown must not produce a spurious stop error.
	s, recv, act := newTestSession([]float64{1, 2, 3}, 2*time.Second, 3*time.Second)

	require.NoError(t, s.Run())
	assert.Equal(t, 1, recv.acquires)
	assert.Zero(t, act.starts)
	assert.Zero(t, act.stops)
	assert.Empty(t, act.speeds)
}

func TestSteadyMetricGivesZeroSpeed(t *testing.T) {
	metrics := make([]float64, 105)
	for i := range metrics {
		metrics[i] = 5.0
	}
	s, _, act := newTestSession(metrics, 3*time.Second, time.Second)

	require.NoError(t, s.Run())
	require.NotEmpty(t, act.speeds)
	for _, v := range act.speeds {
		assert.Zero(t, v)
	}
}

func TestFullRangeMetricClipsAt100(t *testing.T) {
	// 100 calibration values spanning [0, 9.9], then a 10.0 burst: the
	// burst exceeds the 95th percentile and must clip to 100.
	metrics := make([]float64, calib.Capacity+1)
	for i := 0; i < calib.Capacity; i++ {
		metrics[i] = float64(i) / 10
	}
	metrics[calib.Capacity] = 10.0
	s, _, act := newTestSession(metrics, 2*time.Second, time.Second)

	require.NoError(t, s.Run())
	require.GreaterOrEqual(t, len(act.speeds), 2)
	assert.Equal(t, 100.0, act.speeds[len(act.speeds)-1])
}

func TestFeedbackAlwaysInBounds(t *testing.T) {
	metrics := make([]float64, 160)
	for i := range metrics {
		metrics[i] = float64((i * 37) % 19)
	}
	s, _, act := newTestSession(metrics, 50*time.Second, time.Second)

	require.NoError(t, s.Run())
	require.NotEmpty(t, act.speeds)
	for _, v := range act.speeds {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestAcquireErrorStopsActuator(t *testing.T) {
	metrics := make([]float64, 200)
	for i := range metrics {
		metrics[i] = float64(i)
	}
	s, recv, act := newTestSession(metrics, time.Hour, time.Second)
	recv.failAt = 103

	err := s.Run()
	require.Error(t, err)
	assert.Equal(t, 1, act.starts)
	assert.Equal(t, 1, act.stops)
	assert.False(t, act.active)
}

func TestChannelSelectionErrors(t *testing.T) {
	s, recv, _ := newTestSession([]float64{1}, time.Second, time.Second)
	s.Channels = []string{"O1", "Cz"}
	assert.Error(t, s.Run())
	assert.Zero(t, recv.acquires)

	s2, _, _ := newTestSession([]float64{1}, time.Second, time.Second)
	s2.Channels = []string{"O1"}
	assert.Error(t, s2.Run())
}

func TestInvalidDuration(t *testing.T) {
	s, _, _ := newTestSession([]float64{1}, 0, time.Second)
	assert.Error(t, s.Run())
}
