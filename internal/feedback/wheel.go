package feedback

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Usage errors of the wheel lifecycle. All are raised before any side
// effect on the running actuator.
var (
	ErrAlreadyStarted = errors.New("feedback: the feedback is already started")
	ErrNotStarted     = errors.New("feedback: the feedback is already stopped")
	ErrNotInteger     = errors.New("feedback: the provided speed must be an integer")
)

// joinTimeout bounds how long Stop waits for the actuator goroutine.
// Expiry is logged, not escalated: the goroutine exits at its next frame
// anyway since status is already 0.
const joinTimeout = 5 * time.Second

// Config describes a double spinning wheel.
type Config struct {
	// Size is the normalized wheel size. Converted at startup to retain
	// the sprite aspect ratio on the live surface. Default 0.4.
	Size float64
	// Offset positions the wheels at +-Offset horizontally. Default 0.5.
	Offset float64
	// ImagePath overrides the embedded wheel sprite.
	ImagePath string
	// Options are passed to the rendering surface.
	Options Options
}

// DoubleSpinningWheel drives two mirrored, counter-rotating wheels on a
// rendering surface owned by a dedicated actuator goroutine.
//
// The handle and the actuator share exactly two scalar cells, speed and
// status, each individually atomic. The actuator reads both once per
// frame; stop latency is therefore bounded by one refresh period.
type DoubleSpinningWheel struct {
	opts    Options
	sprite  *Sprite
	size    float64
	offset  float64
	surface Surface

	speed  atomic.Int32
	status atomic.Int32

	mu   sync.Mutex // guards Start/Stop transitions
	done chan struct{}
}

// NewDoubleSpinningWheel validates the configuration, loads the wheel
// sprite and builds (but does not open) the surface. All fatal
// conditions surface here, before any goroutine exists.
func NewDoubleSpinningWheel(cfg Config) (*DoubleSpinningWheel, error) {
	opts, err := cfg.Options.withDefaults()
	if err != nil {
		return nil, err
	}
	sprite, err := LoadSprite(cfg.ImagePath)
	if err != nil {
		return nil, err
	}
	opts.Sprite = sprite

	size := cfg.Size
	if size == 0 {
		size = 0.4
	}
	offset := cfg.Offset
	if offset == 0 {
		offset = 0.5
	}
	for name, v := range map[string]float64{"size": size, "offset": offset} {
		if v < -1 || v > 1 {
			log.Printf("feedback: normalized %s %g is outside (-1, 1); the wheels may leave the window", name, v)
		}
	}

	surface, err := newSurface(opts.Backend)
	if err != nil {
		return nil, err
	}
	return &DoubleSpinningWheel{
		opts:    opts,
		sprite:  sprite,
		size:    size,
		offset:  offset,
		surface: surface,
	}, nil
}

// Start spawns the actuator goroutine. Starting an already running
// wheel is a usage error. Start returns as soon as the goroutine is
// spawned; it does not wait for the surface to open.
func (w *DoubleSpinningWheel) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Load() == 1 {
		return ErrAlreadyStarted
	}
	w.status.Store(1)
	w.done = make(chan struct{})
	go w.run(w.done)
	return nil
}

// Stop signals the actuator to exit and waits for it with a bounded
// timeout. Stopping an already stopped wheel is a usage error.
func (w *DoubleSpinningWheel) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Load() == 0 {
		return ErrNotStarted
	}
	w.status.Store(0)
	select {
	case <-w.done:
	case <-time.After(joinTimeout):
		log.Printf("feedback: actuator did not exit within %s, continuing", joinTimeout)
	}
	return nil
}

// SetSpeed sets the per-frame rotation increment. The value must be
// representable as an integer. Callable regardless of running state.
func (w *DoubleSpinningWheel) SetSpeed(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return fmt.Errorf("%w, got %v", ErrNotInteger, v)
	}
	w.speed.Store(int32(v))
	return nil
}

// Speed returns the current rotation increment.
func (w *DoubleSpinningWheel) Speed() int { return int(w.speed.Load()) }

// Active reports whether the feedback is running. A pure atomic read.
func (w *DoubleSpinningWheel) Active() bool { return w.status.Load() == 1 }

// Close stops the wheel if it is still active. Deferred at session
// start so a feedback session can never leak a running actuator.
func (w *DoubleSpinningWheel) Close() error {
	if w.Active() {
		return w.Stop()
	}
	return nil
}

// run is the actuator: the only code that ever touches the surface. It
// opens the surface, sizes the wheels from the live pixel dimensions,
// then draws until status reads 0 and closes the surface itself.
func (w *DoubleSpinningWheel) run(done chan struct{}) {
	defer close(done)

	if err := w.surface.Open(w.opts); err != nil {
		log.Printf("feedback: surface open failed: %v", err)
		return
	}
	defer w.surface.Close()

	pw, ph := w.surface.PixelSize()
	sw, sh := normalizeSize(pw, ph, w.size)

	left := Element{Pos: [2]float64{-w.offset, 0}, Size: [2]float64{sw, sh}}
	right := Element{Pos: [2]float64{w.offset, 0}, Size: [2]float64{-sw, sh}}

	for {
		if w.status.Load() == 0 {
			break
		}
		s := float64(w.speed.Load())
		left.Ori += s
		right.Ori -= s
		if err := w.surface.Render(left, right); err != nil {
			// A failing draw loop is fatal to the actuator and is not
			// restarted.
			log.Printf("feedback: render failed: %v", err)
			return
		}
	}
}
