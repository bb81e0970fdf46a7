package feedback

import (
	"sync/atomic"
	"time"
)

// headlessSurface renders nothing. It keeps sessions runnable on a
// machine with no display attached and gives tests a real backend.
// Render paces the draw loop at a nominal 60 Hz refresh.
type headlessSurface struct {
	frames  atomic.Uint64
	refresh *time.Ticker
}

func (s *headlessSurface) Open(opts Options) error {
	s.refresh = time.NewTicker(time.Second / 60)
	return nil
}

func (s *headlessSurface) PixelSize() (int, int) { return 800, 800 }

func (s *headlessSurface) Render(left, right Element) error {
	<-s.refresh.C
	s.frames.Add(1)
	return nil
}

func (s *headlessSurface) Close() error {
	s.refresh.Stop()
	return nil
}
