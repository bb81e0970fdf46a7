package feedback

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

//go:embed assets/wheel.png
var defaultWheelPNG []byte

// Sprite is a decoded wheel image plus its raw PNG bytes (the web
// backend serves them to the browser).
type Sprite struct {
	img image.Image
	raw []byte
}

// LoadSprite decodes the PNG at path, or the embedded wheel when path
// is empty. A missing or non-PNG path is a fatal construction error,
// caught before any actuator is spawned.
func LoadSprite(path string) (*Sprite, error) {
	raw := defaultWheelPNG
	if path != "" {
		if filepath.Ext(path) != ".png" {
			return nil, fmt.Errorf("feedback: wheel image %q is not a .png file", path)
		}
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("feedback: read wheel image: %w", err)
		}
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("feedback: decode wheel image: %w", err)
	}
	return &Sprite{img: img, raw: raw}, nil
}

// PNG returns the sprite's raw PNG bytes.
func (s *Sprite) PNG() []byte { return s.raw }

// Bounds returns the sprite's pixel bounds.
func (s *Sprite) Bounds() image.Rectangle { return s.img.Bounds() }

// RenderTo draws the sprite into dst centered on (cx, cy), scaled to
// w x h pixels, rotated by ori degrees clockwise. A negative w mirrors
// the sprite horizontally.
func (s *Sprite) RenderTo(dst xdraw.Image, cx, cy, w, h, ori float64) {
	b := s.img.Bounds()
	scx := float64(b.Min.X+b.Max.X) / 2
	scy := float64(b.Min.Y+b.Max.Y) / 2
	sx := w / float64(b.Dx())
	sy := h / float64(b.Dy())

	rad := ori * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	// T(center) * R(ori) * S(sx, sy) * T(-src center)
	a00 := cos * sx
	a01 := -sin * sy
	a10 := sin * sx
	a11 := cos * sy
	m := f64.Aff3{
		a00, a01, cx - a00*scx - a01*scy,
		a10, a11, cy - a10*scx - a11*scy,
	}
	xdraw.NearestNeighbor.Transform(dst, m, s.img, b, xdraw.Over, nil)
}

// normalizeSize converts a single normalized size into a width/height
// pair that retains the sprite aspect ratio on a non-square surface:
// the narrower dimension's size is scaled up by the aspect ratio.
// Computed from the live surface pixel size at actuator startup.
func normalizeSize(w, h int, size float64) (sw, sh float64) {
	switch {
	case w == h:
		return size, size
	case h < w:
		return size, size * float64(w) / float64(h)
	default:
		return size * float64(h) / float64(w), size
	}
}
