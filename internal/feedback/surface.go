// Package feedback drives the visual feedback: a pair of
// counter-rotating wheels rendered by an isolated goroutine that owns
// the rendering surface.
package feedback

import (
	"fmt"
	"image/color"
	"log"
)

// Element is one image instance on a surface. Position and size are in
// normalized coordinates (the surface spans -1..1 on both axes); a
// negative width mirrors the image horizontally. Ori is the orientation
// in degrees, clockwise.
type Element struct {
	Pos  [2]float64
	Size [2]float64
	Ori  float64
}

// Surface is a 2D rendering target. Open, Render and Close are only
// ever called from the actuator goroutine; no other code may touch the
// surface once the actuator has been started.
type Surface interface {
	Open(opts Options) error
	// PixelSize reports the live surface dimensions. Valid after Open.
	PixelSize() (w, h int)
	// Render draws both elements and presents the frame. The call paces
	// the draw loop at the backend's own refresh cadence.
	Render(left, right Element) error
	Close() error
}

// Supported backends.
const (
	BackendWeb      = "web"
	BackendOLED     = "oled"
	BackendHeadless = "headless"

	// DefaultBackend is recommended; others only log a warning.
	DefaultBackend = BackendWeb

	// requiredUnits is the only supported coordinate space.
	requiredUnits = "norm"
)

// DefaultBackground is the recommended surface background.
var DefaultBackground = color.RGBA{A: 255}

// Options configure a surface. Units must be "norm"; Backend and
// Background have defaults and only warn on override.
type Options struct {
	Units      string
	Backend    string
	Background *color.RGBA

	Sprite *Sprite

	// Backend specific.
	WebAddr string // web: HTTP listen address
	I2CAddr uint16 // oled: unused with the default 0x3C device
}

// withDefaults validates the constrained options and fills defaults.
func (o Options) withDefaults() (Options, error) {
	if o.Units == "" {
		o.Units = requiredUnits
	} else if o.Units != requiredUnits {
		return o, fmt.Errorf("feedback: unsupported units %q, only %q is supported", o.Units, requiredUnits)
	}
	if o.Backend == "" {
		o.Backend = DefaultBackend
	} else if o.Backend != DefaultBackend {
		log.Printf("feedback: the %q backend is recommended above the provided %q", DefaultBackend, o.Backend)
	}
	if o.Background == nil {
		bg := DefaultBackground
		o.Background = &bg
	} else if *o.Background != DefaultBackground {
		log.Printf("feedback: the default background is recommended above the provided %v", *o.Background)
	}
	if o.WebAddr == "" {
		o.WebAddr = ":8080"
	}
	return o, nil
}

// newSurface builds the surface for a backend. The surface is not
// opened here; Open happens inside the actuator goroutine.
func newSurface(backend string) (Surface, error) {
	switch backend {
	case BackendWeb:
		return &webSurface{}, nil
	case BackendOLED:
		return &oledSurface{}, nil
	case BackendHeadless:
		return &headlessSurface{}, nil
	default:
		return nil, fmt.Errorf("feedback: unknown surface backend %q", backend)
	}
}
