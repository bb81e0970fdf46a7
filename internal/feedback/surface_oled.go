package feedback

import (
	"fmt"
	"image"
	"image/draw"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

const (
	oledW = 128
	oledH = 64

	// lumaOn is the threshold above which an RGBA pixel lights a
	// monochrome OLED pixel.
	lumaOn = 0x30
)

// oledSurface renders the wheels on an SSD1306 over I2C. The I2C frame
// write paces the draw loop; no extra throttling is needed.
type oledSurface struct {
	bus    i2c.BusCloser
	dev    *ssd1306.Dev
	rgb    *image.RGBA
	sprite *Sprite
}

func (s *oledSurface) Open(opts Options) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("feedback: periph init: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("feedback: open I2C bus: %w", err)
	}
	if opts.I2CAddr != 0 && opts.I2CAddr != 0x3C {
		log.Printf("feedback: OLED at 0x%X requested, driver only supports its default address", opts.I2CAddr)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return fmt.Errorf("feedback: init SSD1306: %w", err)
	}
	s.bus = bus
	s.dev = dev
	s.rgb = image.NewRGBA(image.Rect(0, 0, oledW, oledH))
	s.sprite = opts.Sprite
	log.Printf("feedback: OLED surface initialized (%dx%d)", oledW, oledH)
	return s.splash()
}

func (s *oledSurface) PixelSize() (int, int) { return oledW, oledH }

func (s *oledSurface) Render(left, right Element) error {
	draw.Draw(s.rgb, s.rgb.Bounds(), image.Black, image.Point{}, draw.Src)
	for _, e := range []Element{left, right} {
		cx := (1 + e.Pos[0]) / 2 * oledW
		cy := (1 - e.Pos[1]) / 2 * oledH
		w := e.Size[0] / 2 * oledW
		h := e.Size[1] / 2 * oledH
		s.sprite.RenderTo(s.rgb, cx, cy, w, h, e.Ori)
	}
	return s.push()
}

// push thresholds the RGBA frame into 1-bit and writes it to the device.
func (s *oledSurface) push() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledW, oledH))
	for y := 0; y < oledH; y++ {
		for x := 0; x < oledW; x++ {
			r, g, b, _ := s.rgb.At(x, y).RGBA()
			if (r+g+b)/3>>8 > lumaOn {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

// splash shows a banner until the first frame lands.
func (s *oledSurface) splash() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledW, oledH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(25, 26)
	drawer.DrawBytes([]byte("neuroloop"))
	drawer.Dot = fixed.P(15, 43)
	drawer.DrawBytes([]byte("warming up"))
	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

func (s *oledSurface) Close() error {
	if s.dev != nil {
		if err := s.dev.Halt(); err != nil {
			log.Printf("feedback: OLED halt: %v", err)
		}
	}
	if s.bus != nil {
		return s.bus.Close()
	}
	return nil
}
