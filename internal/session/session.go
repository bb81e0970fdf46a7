// Package session runs the closed feedback loop: acquire a window,
// derive the metric, auto-range it against recent history and push the
// normalized value to the actuator.
package session

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/neurotap/neuroloop/internal/calib"
	"github.com/neurotap/neuroloop/internal/eeg"
	"github.com/neurotap/neuroloop/internal/telemetry"
)

// Percentiles defining the calibrated operating range.
const (
	rangeLowPct  = 5
	rangeHighPct = 95
)

// MetricFunc maps a channels x samples window and its sampling rate to
// one power estimate per channel.
type MetricFunc func(data [][]float64, fs float64) ([]float64, error)

// Actuator is the control side of the visual feedback.
type Actuator interface {
	Start() error
	Stop() error
	SetSpeed(v float64) error
	Active() bool
}

// Session is one feedback run. The zero value is not usable; fill the
// exported fields and call Run.
type Session struct {
	Receiver  eeg.Receiver
	Metric    MetricFunc
	Wheel     Actuator
	Telemetry telemetry.Publisher // optional
	// Channels are the two channel names driving the feedback.
	Channels []string
	// Duration is the wall-clock budget of the active phase. Warm-up
	// time does not count against it.
	Duration time.Duration
	Verbose  bool

	now func() time.Time // test hook
}

// Run executes the session: warm-up until the calibration window is
// full, then feedback until Duration of active time has elapsed. The
// actuator is stopped on every exit path, including errors.
func (s *Session) Run() error {
	if s.Duration <= 0 {
		return fmt.Errorf("session: duration must be positive, got %s", s.Duration)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.Telemetry == nil {
		s.Telemetry = telemetry.Nop{}
	}

	info := s.Receiver.Info()
	idx, err := channelIndices(info, s.Channels)
	if err != nil {
		return err
	}

	// A session must never leak a running actuator, even when the
	// active phase was never reached: guard the stop behind Active.
	defer func() {
		if s.Wheel.Active() {
			if err := s.Wheel.Stop(); err != nil {
				log.Printf("session: stopping feedback: %v", err)
			}
		}
	}()

	win := calib.NewWindow()
	log.Printf("session: warming up (%d windows to calibrate)", calib.Capacity)

	start := s.now()
	for {
		if err := s.Receiver.Acquire(); err != nil {
			return fmt.Errorf("session: acquisition failed: %w", err)
		}
		data, _ := s.Receiver.Window()

		powers, err := s.Metric([][]float64{data[idx[0]], data[idx[1]]}, info.Rate)
		if err != nil {
			return fmt.Errorf("session: metric failed: %w", err)
		}
		metric := mean(powers)
		win.Append(metric)

		if !win.Full() {
			// The session budget can still run out mid warm-up when
			// acquisition is slower than the configured duration.
			if s.now().Sub(start) > s.Duration {
				log.Printf("session: duration elapsed before calibration completed (%d/%d windows)",
					win.Count(), calib.Capacity)
				return nil
			}
			// Hold the session clock: completed warm-up cycles do not
			// consume the feedback budget.
			start = s.now()
			continue
		}
		if win.Count() == calib.Capacity {
			log.Printf("session: calibrated, starting feedback for %s", s.Duration)
			if err := s.Wheel.Start(); err != nil {
				return fmt.Errorf("session: starting feedback: %w", err)
			}
		}

		low, high, err := win.Range(rangeLowPct, rangeHighPct)
		if err != nil {
			return err
		}
		// A zero-width range means the metric history is flat and
		// carries no ranking information: treat as no signal.
		var speed float64
		if high > low {
			speed = math.Trunc(clip((metric-low)/(high-low), 0, 1) * 100)
		}
		if err := s.Wheel.SetSpeed(speed); err != nil {
			return fmt.Errorf("session: setting speed: %w", err)
		}

		elapsed := s.now().Sub(start).Seconds()
		s.Telemetry.Publish(telemetry.Sample{
			Metric:   metric,
			Low:      low,
			High:     high,
			Feedback: int(speed),
			Elapsed:  elapsed,
		})
		if s.Verbose {
			log.Printf("session: metric=%.4f range=[%.4f, %.4f] feedback=%d", metric, low, high, int(speed))
		}
		if s.now().Sub(start) > s.Duration {
			break
		}
	}
	log.Printf("session: done")
	return nil
}

// channelIndices resolves the two driving channels against the stream's
// channel list.
func channelIndices(info eeg.Info, names []string) ([]int, error) {
	if len(names) != 2 {
		return nil, fmt.Errorf("session: exactly 2 channels must be selected, got %d", len(names))
	}
	idx := make([]int, 0, 2)
	for _, name := range names {
		found := -1
		for i, ch := range info.Channels {
			if ch == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("session: channel %q not present in stream %q %v", name, info.Name, info.Channels)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
