package eeg

import (
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// chunkInterval is how often the server flushes buffered samples to
// connected clients.
const chunkInterval = 20 * time.Millisecond

// Server streams a synthetic signal over the neuroloop wire protocol and
// answers discovery queries for its name.
type Server struct {
	Name string
	Addr string // TCP listen address, e.g. ":9350"

	synth *Synth
	ln    net.Listener
	pc    net.PacketConn

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewServer creates a server for a rate-Hz synthetic stream.
func NewServer(name, addr string, rate float64) *Server {
	return &Server{
		Name:  name,
		Addr:  addr,
		synth: NewSynth(rate),
		done:  make(chan struct{}),
	}
}

// ListenAndServe binds the TCP and discovery sockets and serves until
// Close. It blocks.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("eeg: stream server listen %s: %w", s.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	pc, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", discoveryPort))
	if err != nil {
		ln.Close()
		return fmt.Errorf("eeg: discovery responder: %w", err)
	}
	s.mu.Lock()
	s.pc = pc
	s.mu.Unlock()
	go s.answerQueries(pc, ln.Addr().(*net.TCPAddr).Port)

	log.Printf("stream-sim: serving %q on %s (%g Hz, %d channels)",
		s.Name, ln.Addr(), s.synth.Rate, len(s.synth.Channels))
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return fmt.Errorf("eeg: stream server accept: %w", err)
			}
		}
		go s.serveConn(conn)
	}
}

// TCPAddr returns the bound listener address. Only valid once
// ListenAndServe has started accepting.
func (s *Server) TCPAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) answerQueries(pc net.PacketConn, port int) {
	buf := make([]byte, 256)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		query := string(buf[:n])
		if !strings.HasPrefix(query, queryPrefix) {
			continue
		}
		want := query[len(queryPrefix):]
		if want != "" && want != s.Name {
			continue
		}
		reply := fmt.Sprintf("%s%s %d", replyPrefix, s.Name, port)
		if _, err := pc.WriteTo([]byte(reply), from); err != nil {
			log.Printf("stream-sim: discovery reply to %s: %v", from, err)
		}
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	log.Printf("stream-sim: client connected from %s", conn.RemoteAddr())

	// Per-connection generator: Synth is not safe for concurrent use.
	synth := NewSynth(s.synth.Rate)
	info := Info{Name: s.Name, Rate: synth.Rate, Channels: synth.Channels}
	if err := writeHeader(conn, info); err != nil {
		log.Printf("stream-sim: header write to %s: %v", conn.RemoteAddr(), err)
		return
	}

	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	start := time.Now()
	var sent int64
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		target := int64(time.Since(start).Seconds() * synth.Rate)
		if target <= sent {
			continue
		}
		chunk := make([][]float64, 0, target-sent)
		for ; sent < target; sent++ {
			chunk = append(chunk, synth.Sample(sent))
		}
		if err := writeChunk(conn, chunk); err != nil {
			log.Printf("stream-sim: client %s dropped: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// Close stops the server. Safe to call once.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	if s.ln != nil {
		s.ln.Close()
	}
	if s.pc != nil {
		s.pc.Close()
	}
}
