package eeg

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Wire protocol of a neuroloop stream connection: one JSON header line
// describing the stream, then framed sample chunks of little-endian
// float32 values, sample-major.
//
// Chunk layout: 0x5A 0xA5 | uint16 sample count | count * nch * float32.

const (
	chunkMagic0 = 0x5A
	chunkMagic1 = 0xA5

	// maxChunkSamples bounds a single chunk; larger chunks are a
	// protocol error, not a resize request.
	maxChunkSamples = 4096
)

// discoveryPort is the UDP port used for stream discovery. A var so
// tests can run a responder on an ephemeral port.
var discoveryPort = 16571

const (
	queryPrefix = "NLQ?"
	replyPrefix = "NLS "
)

func writeHeader(w io.Writer, info Info) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	_, err = w.Write(payload)
	return err
}

func readHeader(br *bufio.Reader) (Info, error) {
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Info{}, fmt.Errorf("eeg: read stream header: %w", err)
	}
	var info Info
	if err := json.Unmarshal(line, &info); err != nil {
		return Info{}, fmt.Errorf("eeg: decode stream header: %w", err)
	}
	if info.Rate <= 0 || len(info.Channels) == 0 {
		return Info{}, fmt.Errorf("eeg: malformed stream header: rate=%g channels=%d",
			info.Rate, len(info.Channels))
	}
	return info, nil
}

// writeChunk sends samples (sample-major, len(samples) x nch) as one
// framed chunk.
func writeChunk(w io.Writer, samples [][]float64) error {
	if len(samples) == 0 {
		return nil
	}
	if len(samples) > maxChunkSamples {
		return fmt.Errorf("eeg: chunk of %d samples exceeds limit %d", len(samples), maxChunkSamples)
	}
	nch := len(samples[0])
	buf := make([]byte, 4+len(samples)*nch*4)
	buf[0] = chunkMagic0
	buf[1] = chunkMagic1
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(samples)))
	off := 4
	for _, sample := range samples {
		for _, v := range sample {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
			off += 4
		}
	}
	_, err := w.Write(buf)
	return err
}

// readChunk reads one framed chunk and returns it sample-major.
func readChunk(br *bufio.Reader, nch int) ([][]float64, error) {
	var head [4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return nil, err
	}
	if head[0] != chunkMagic0 || head[1] != chunkMagic1 {
		return nil, fmt.Errorf("eeg: bad chunk magic %02x%02x", head[0], head[1])
	}
	n := int(binary.LittleEndian.Uint16(head[2:]))
	if n == 0 || n > maxChunkSamples {
		return nil, fmt.Errorf("eeg: bad chunk sample count %d", n)
	}
	raw := make([]byte, n*nch*4)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, err
	}
	samples := make([][]float64, n)
	off := 0
	for i := range samples {
		row := make([]float64, nch)
		for ch := range row {
			row[ch] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
			off += 4
		}
		samples[i] = row
	}
	return samples, nil
}
