package eeg

import (
	"bufio"
	"fmt"
	"net"
)

// TCPReceiver is a Receiver backed by a neuroloop stream server.
type TCPReceiver struct {
	conn net.Conn
	br   *bufio.Reader
	info Info
	buf  *winBuffer
}

// Dial connects to a stream server and prepares a rolling window of
// winsize seconds.
func Dial(addr string, winsize float64) (*TCPReceiver, error) {
	if winsize <= 0 {
		return nil, fmt.Errorf("eeg: window duration must be positive, got %g", winsize)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("eeg: connect to stream %s: %w", addr, err)
	}
	br := bufio.NewReader(conn)
	info, err := readHeader(br)
	if err != nil {
		conn.Close()
		return nil, err
	}
	size := int(winsize * info.Rate)
	if size < 1 {
		conn.Close()
		return nil, fmt.Errorf("eeg: window of %gs holds no samples at %g Hz", winsize, info.Rate)
	}
	return &TCPReceiver{
		conn: conn,
		br:   br,
		info: info,
		buf:  newWinBuffer(len(info.Channels), size, info.Rate),
	}, nil
}

// Acquire blocks until at least one new chunk has arrived and the
// buffer holds a full window.
func (r *TCPReceiver) Acquire() error {
	fresh := false
	for !fresh || !r.buf.full() {
		chunk, err := readChunk(r.br, len(r.info.Channels))
		if err != nil {
			return fmt.Errorf("eeg: acquire from %s: %w", r.conn.RemoteAddr(), err)
		}
		for _, sample := range chunk {
			r.buf.push(sample)
		}
		fresh = true
	}
	return nil
}

// Window returns the most recent window. Only valid after a successful
// Acquire.
func (r *TCPReceiver) Window() ([][]float64, []float64) { return r.buf.window() }

func (r *TCPReceiver) Info() Info { return r.info }

func (r *TCPReceiver) Close() error { return r.conn.Close() }
