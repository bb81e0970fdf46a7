package feedback

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// webSurface renders in the browser: it serves a canvas page plus the
// wheel sprite and pushes both element states over a websocket on every
// frame, paced at ~60 Hz.
type webSurface struct {
	opts     Options
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
	refresh  *time.Ticker

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// frameState is the per-frame payload pushed to the browser.
type frameState struct {
	Left  Element `json:"left"`
	Right Element `json:"right"`
}

func (s *webSurface) Open(opts Options) error {
	s.opts = opts
	s.conns = make(map[*websocket.Conn]bool)
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, wheelPage)
	})
	mux.HandleFunc("/wheel.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(opts.Sprite.PNG())
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("feedback: websocket upgrade error: %v", err)
			return
		}
		s.mu.Lock()
		// A nil map means the surface is already closed; an upgrade can
		// still land here because hijacked connections outlive the
		// http.Server shutdown.
		if s.conns == nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = true
		s.mu.Unlock()
		log.Printf("feedback: viewer connected from %s", conn.RemoteAddr())
	})

	ln, err := net.Listen("tcp", opts.WebAddr)
	if err != nil {
		return fmt.Errorf("feedback: web surface listen %s: %w", opts.WebAddr, err)
	}
	s.listener = ln
	s.server = &http.Server{Handler: mux}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("feedback: web surface server: %v", err)
		}
	}()
	log.Printf("feedback: web surface on http://%s", ln.Addr())

	s.refresh = time.NewTicker(time.Second / 60)
	return nil
}

// PixelSize reports the canvas dimensions rendered by the page.
func (s *webSurface) PixelSize() (int, int) { return 800, 800 }

func (s *webSurface) Render(left, right Element) error {
	<-s.refresh.C

	payload, err := json.Marshal(frameState{Left: left, Right: right})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
	return nil
}

func (s *webSurface) Close() error {
	s.refresh.Stop()
	// Stop accepting upgrades before tearing the connection map down.
	err := s.server.Close()
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	return err
}

// wheelPage draws the two wheels on a canvas from websocket frame
// updates. Normalized coordinates map -1..1 onto the canvas; a negative
// width mirrors the sprite, matching the Go-side Element semantics.
const wheelPage = `<!DOCTYPE html>
<html>
<head><title>neuroloop</title>
<style>body{margin:0;background:#000}canvas{display:block;margin:0 auto}</style>
</head>
<body>
<canvas id="c" width="800" height="800"></canvas>
<script>
const canvas = document.getElementById("c");
const ctx = canvas.getContext("2d");
const img = new Image();
img.src = "/wheel.png";
let state = null;

const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => { state = JSON.parse(ev.data); };

function drawElement(e) {
  const cx = (1 + e.Pos[0]) / 2 * canvas.width;
  const cy = (1 - e.Pos[1]) / 2 * canvas.height;
  const w = e.Size[0] / 2 * canvas.width;
  const h = e.Size[1] / 2 * canvas.height;
  ctx.save();
  ctx.translate(cx, cy);
  ctx.rotate(e.Ori * Math.PI / 180);
  ctx.scale(Math.sign(w) || 1, 1);
  ctx.drawImage(img, -Math.abs(w) / 2, -h / 2, Math.abs(w), h);
  ctx.restore();
}

function frame() {
  ctx.fillStyle = "#000";
  ctx.fillRect(0, 0, canvas.width, canvas.height);
  if (state && img.complete) {
    drawElement(state.left);
    drawElement(state.right);
  }
  requestAnimationFrame(frame);
}
requestAnimationFrame(frame);
</script>
</body>
</html>`
