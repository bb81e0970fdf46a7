package eeg

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Resolve finds a stream server by name on the local network. It
// broadcasts a UDP query and returns the TCP address of the first
// matching reply. An empty name matches any stream. Timeout expiry is a
// fatal discovery error.
func Resolve(name string, timeout time.Duration) (string, error) {
	pc, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return "", fmt.Errorf("eeg: discovery socket: %w", err)
	}
	defer pc.Close()

	query := []byte(queryPrefix + name)
	for _, host := range []string{"255.255.255.255", "127.0.0.1"} {
		dst := &net.UDPAddr{IP: net.ParseIP(host), Port: discoveryPort}
		// Broadcast may be unavailable on some interfaces; loopback
		// still covers same-host streams.
		_, _ = pc.WriteTo(query, dst)
	}

	if err := pc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	buf := make([]byte, 256)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			return "", fmt.Errorf("eeg: no stream %q found within %s: %w", name, timeout, err)
		}
		reply := string(buf[:n])
		if !strings.HasPrefix(reply, replyPrefix) {
			continue
		}
		fields := strings.Fields(reply[len(replyPrefix):])
		if len(fields) != 2 {
			continue
		}
		streamName, port := fields[0], fields[1]
		if name != "" && streamName != name {
			continue
		}
		host, _, err := net.SplitHostPort(from.String())
		if err != nil {
			continue
		}
		return net.JoinHostPort(host, port), nil
	}
}
