package eeg

import (
	"bufio"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenBCI Cyton binary stream: 33-byte frames at 250 Hz.
//
//	0xA0 | sample counter | 8 x 24-bit big-endian channel counts |
//	6 aux bytes | 0xC0..0xCF footer
const (
	cytonRate     = 250.0
	cytonFrameLen = 33
	cytonHeader   = 0xA0
	cytonChannels = 8

	// Volts per count at gain 24 with the 4.5 V reference, scaled to uV.
	cytonScale = 4.5 / 24 / 8388607 * 1e6
)

// SerialReceiver is a Receiver backed by a Cyton board on a serial port.
type SerialReceiver struct {
	port io.ReadWriteCloser
	br   *bufio.Reader
	info Info
	buf  *winBuffer
}

// OpenSerial opens the port, starts the board streaming and prepares a
// rolling window of winsize seconds.
func OpenSerial(portName string, baudRate uint, winsize float64) (*SerialReceiver, error) {
	if winsize <= 0 {
		return nil, fmt.Errorf("eeg: window duration must be positive, got %g", winsize)
	}
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("eeg: open serial port %s: %w", portName, err)
	}
	// 'b' starts the Cyton stream.
	if _, err := port.Write([]byte{'b'}); err != nil {
		port.Close()
		return nil, fmt.Errorf("eeg: start stream on %s: %w", portName, err)
	}
	size := int(winsize * cytonRate)
	return &SerialReceiver{
		port: port,
		br:   bufio.NewReaderSize(port, 4096),
		info: Info{Name: portName, Rate: cytonRate, Channels: append([]string(nil), DefaultMontage...)},
		buf:  newWinBuffer(cytonChannels, size, cytonRate),
	}, nil
}

func (r *SerialReceiver) Acquire() error {
	fresh := false
	for !fresh || !r.buf.full() {
		sample, err := r.readFrame()
		if err != nil {
			return fmt.Errorf("eeg: acquire from %s: %w", r.info.Name, err)
		}
		r.buf.push(sample)
		fresh = true
	}
	return nil
}

// readFrame scans to the next frame header and decodes one sample in uV.
func (r *SerialReceiver) readFrame() ([]float64, error) {
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != cytonHeader {
			continue
		}
		rest := make([]byte, cytonFrameLen-1)
		if _, err := io.ReadFull(r.br, rest); err != nil {
			return nil, err
		}
		// Footer high nibble identifies the aux payload format; anything
		// outside 0xC0..0xCF means we synced on a stray 0xA0.
		if rest[cytonFrameLen-2]&0xF0 != 0xC0 {
			continue
		}
		sample := make([]float64, cytonChannels)
		for ch := 0; ch < cytonChannels; ch++ {
			off := 1 + ch*3 // skip the sample counter byte
			sample[ch] = float64(decodeInt24(rest[off:off+3])) * cytonScale
		}
		return sample, nil
	}
}

// decodeInt24 decodes a big-endian 24-bit two's-complement integer.
func decodeInt24(b []byte) int32 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if v&0x800000 != 0 {
		v -= 1 << 24
	}
	return v
}

func (r *SerialReceiver) Window() ([][]float64, []float64) { return r.buf.window() }

func (r *SerialReceiver) Info() Info { return r.info }

func (r *SerialReceiver) Close() error {
	// Best effort: tell the board to stop streaming before closing.
	_, _ = r.port.Write([]byte{'s'})
	return r.port.Close()
}
