package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/neurotap/neuroloop/internal/config"
	"github.com/neurotap/neuroloop/internal/eeg"
)

// simulatedRate matches the sampling rate of the Cyton board so that a
// simulated session behaves like a live one.
const simulatedRate = 250

// RunStreamSim serves a synthetic 8-channel stream over TCP and answers
// discovery queries until interrupted. Used for development without a
// headset on the desk.
func RunStreamSim(addr string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	return serveStream(addr, sigCh)
}

// serveStream serves until the stop channel fires or the server fails.
func serveStream(addr string, stop <-chan os.Signal) error {
	cfg := config.Get()

	srv := eeg.NewServer(cfg.StreamName, addr, simulatedRate)
	// ListenAndServe blocks in its accept loop until Close.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	log.Println("stream-sim: shutting down")
	srv.Close()
	return nil
}
