package eeg

// winBuffer is a per-channel ring buffer holding the most recent window
// of samples.
type winBuffer struct {
	data  [][]float64 // channels x capacity
	rate  float64
	size  int   // samples per window
	pos   int   // next write index
	total int64 // samples ever written
}

func newWinBuffer(nch, size int, rate float64) *winBuffer {
	data := make([][]float64, nch)
	for ch := range data {
		data[ch] = make([]float64, size)
	}
	return &winBuffer{data: data, rate: rate, size: size}
}

// push appends one multi-channel sample, overwriting the oldest.
func (b *winBuffer) push(sample []float64) {
	for ch := range b.data {
		b.data[ch][b.pos] = sample[ch]
	}
	b.pos = (b.pos + 1) % b.size
	b.total++
}

// full reports whether one complete window has been written.
func (b *winBuffer) full() bool { return b.total >= int64(b.size) }

// count returns the number of samples ever written.
func (b *winBuffer) count() int64 { return b.total }

// window returns the buffered samples ordered oldest to newest, plus a
// timestamp per sample derived from the sample counter and rate.
func (b *winBuffer) window() ([][]float64, []float64) {
	out := make([][]float64, len(b.data))
	for ch := range b.data {
		row := make([]float64, b.size)
		// pos is the oldest sample once the buffer has wrapped.
		n := copy(row, b.data[ch][b.pos:])
		copy(row[n:], b.data[ch][:b.pos])
		out[ch] = row
	}
	ts := make([]float64, b.size)
	first := b.total - int64(b.size)
	for i := range ts {
		ts[i] = float64(first+int64(i)) / b.rate
	}
	return out, ts
}
