package feedback

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSurfaceLifecycle(t *testing.T) {
	sprite, err := LoadSprite("")
	require.NoError(t, err)

	s := &webSurface{}
	require.NoError(t, s.Open(Options{WebAddr: "127.0.0.1:0", Sprite: sprite}))
	addr := s.listener.Addr().String()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// The handler registers the connection after the handshake, so the
	// dial can return before the surface sees the viewer.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.conns) == 1
	}, 2*time.Second, 5*time.Millisecond)

	left := Element{Pos: [2]float64{-0.5, 0}, Size: [2]float64{0.4, 0.4}, Ori: 30}
	right := Element{Pos: [2]float64{0.5, 0}, Size: [2]float64{-0.4, 0.4}, Ori: -30}
	require.NoError(t, s.Render(left, right))

	var st frameState
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, left, st.Left)
	assert.Equal(t, right, st.Right)

	// Closing with a live viewer must tear down cleanly, and upgrades
	// arriving afterwards must be refused rather than crash a handler.
	require.NoError(t, s.Close())
	_, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	assert.Error(t, err)
}
