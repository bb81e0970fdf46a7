package eeg

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer runs a server on loopback with an ephemeral discovery
// port and waits until it is accepting.
func startTestServer(t *testing.T, name string) *Server {
	t.Helper()

	// Pick a free UDP port so parallel test runs do not collide on the
	// well-known discovery port.
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	pc.Close()
	old := discoveryPort
	discoveryPort = port
	t.Cleanup(func() { discoveryPort = old })

	srv := NewServer(name, "127.0.0.1:0", 250)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			t.Logf("server exited: %v", err)
		}
	}()
	t.Cleanup(srv.Close)

	require.Eventually(t, func() bool { return srv.TCPAddr() != "" },
		2*time.Second, 10*time.Millisecond)
	return srv
}

func TestDialAndAcquire(t *testing.T) {
	srv := startTestServer(t, "sim-eeg")

	r, err := Dial(srv.TCPAddr(), 0.1)
	require.NoError(t, err)
	defer r.Close()

	info := r.Info()
	assert.Equal(t, "sim-eeg", info.Name)
	assert.Equal(t, 250.0, info.Rate)
	assert.Equal(t, DefaultMontage, info.Channels)

	require.NoError(t, r.Acquire())
	samples, ts := r.Window()
	require.Len(t, samples, len(DefaultMontage))
	assert.Len(t, samples[0], 25) // 0.1 s at 250 Hz
	assert.Len(t, ts, 25)

	// Second acquire must return only once new data arrived.
	before := r.buf.count()
	require.NoError(t, r.Acquire())
	assert.Greater(t, r.buf.count(), before)
}

func TestResolveByName(t *testing.T) {
	srv := startTestServer(t, "sim-eeg")

	addr, err := Resolve("sim-eeg", 2*time.Second)
	require.NoError(t, err)

	_, wantPort, err := net.SplitHostPort(srv.TCPAddr())
	require.NoError(t, err)
	_, gotPort, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.Equal(t, wantPort, gotPort)
}

func TestResolveAnyStream(t *testing.T) {
	startTestServer(t, "whatever")
	_, err := Resolve("", 2*time.Second)
	assert.NoError(t, err)
}

func TestResolveTimesOut(t *testing.T) {
	// No responder on this port.
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	pc.Close()
	old := discoveryPort
	discoveryPort = port
	t.Cleanup(func() { discoveryPort = old })

	_, err = Resolve("ghost", 100*time.Millisecond)
	assert.Error(t, err)
}
