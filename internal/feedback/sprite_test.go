package feedback

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedSprite(t *testing.T) {
	s, err := LoadSprite("")
	require.NoError(t, err)
	b := s.Bounds()
	assert.Positive(t, b.Dx())
	assert.Equal(t, b.Dx(), b.Dy(), "wheel sprite must be square")
	assert.NotEmpty(t, s.PNG())
}

func TestLoadSpriteRejectsBadPaths(t *testing.T) {
	_, err := LoadSprite("/nonexistent/wheel.png")
	assert.Error(t, err)

	_, err = LoadSprite("wheel.jpg")
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not a png"), 0o644))
	_, err = LoadSprite(bogus)
	assert.Error(t, err)
}

func TestRenderToDrawsPixels(t *testing.T) {
	s, err := LoadSprite("")
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	s.RenderTo(dst, 32, 32, 48, 48, 30)

	lit := 0
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] != 0 {
			lit++
		}
	}
	assert.Positive(t, lit, "rotated sprite rendered no pixels")
}

func TestRenderToMirrors(t *testing.T) {
	s, err := LoadSprite("")
	require.NoError(t, err)

	normal := image.NewRGBA(image.Rect(0, 0, 64, 64))
	mirrored := image.NewRGBA(image.Rect(0, 0, 64, 64))
	s.RenderTo(normal, 32, 32, 48, 48, 0)
	s.RenderTo(mirrored, 32, 32, -48, 48, 0)

	// The mirrored render must equal the normal one flipped about the
	// vertical center line, at least in coverage.
	match := 0
	total := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			a := normal.RGBAAt(x, y).A != 0
			b := mirrored.RGBAAt(63-x, y).A != 0
			total++
			if a == b {
				match++
			}
		}
	}
	assert.Greater(t, float64(match)/float64(total), 0.95)
}
