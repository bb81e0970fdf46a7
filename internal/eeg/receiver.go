// Package eeg provides windowed access to multi-channel biosignal
// streams: a TCP client for neuroloop stream servers, a serial client
// for OpenBCI Cyton boards, a synthetic mock source, and stream
// discovery by name.
package eeg

// Info describes a stream: its advertised name, sampling rate in Hz and
// ordered channel names.
type Info struct {
	Name     string   `json:"name"`
	Rate     float64  `json:"rate"`
	Channels []string `json:"channels"`
}

// Receiver delivers a rolling fixed-duration window of samples.
//
// Acquire blocks until new samples have arrived and the internal buffer
// holds one full window; the first call therefore blocks for roughly the
// window duration. Window is a non-blocking read of the most recent
// window. Receivers are not safe for concurrent use.
type Receiver interface {
	Acquire() error
	// Window returns the most recent window as a channels x samples
	// matrix plus one timestamp (seconds since stream start) per sample.
	Window() (samples [][]float64, ts []float64)
	Info() Info
	Close() error
}

// DefaultMontage is the channel layout assumed for 8-channel sources
// that do not advertise names (Cyton default cap positions).
var DefaultMontage = []string{"Fp1", "Fp2", "C3", "C4", "P7", "P8", "O1", "O2"}
