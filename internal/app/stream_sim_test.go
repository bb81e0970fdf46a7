package app

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurotap/neuroloop/internal/config"
)

func TestServeStreamStopsOnSignal(t *testing.T) {
	require.NoError(t, config.InitGlobal(""))

	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- serveStream("127.0.0.1:0", stop) }()

	// Let the server bind before interrupting it.
	time.Sleep(100 * time.Millisecond)
	stop <- os.Interrupt

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream simulator did not shut down on signal")
	}
}

func TestServeStreamReportsBindError(t *testing.T) {
	require.NoError(t, config.InitGlobal(""))

	// Occupy the address so the server cannot bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	stop := make(chan os.Signal)
	assert.Error(t, serveStream(ln.Addr().String(), stop))
}
