// Package bandpower estimates per-channel spectral power in a frequency
// band from a window of multi-channel samples.
package bandpower

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/integrate"
)

// Method selects the power spectral density estimator.
type Method string

const (
	// Periodogram is a single rectangular-window FFT of the whole window.
	Periodogram Method = "periodogram"
	// Welch averages Hann-windowed overlapping segments. Less variance,
	// coarser frequency resolution.
	Welch Method = "welch"
	// Multitaper averages DPSS-tapered spectra of the whole window:
	// Welch-like variance at full frequency resolution, at the cost of
	// a one-time eigendecomposition per window length.
	Multitaper Method = "multitaper"
)

// welchSegment is the Welch segment length in samples (50 % overlap).
const welchSegment = 256

// Band is a frequency band of interest in Hz, edges included.
type Band struct {
	Low  float64
	High float64
}

func (b Band) validate() error {
	if b.Low < 0 || b.High < b.Low {
		return fmt.Errorf("bandpower: invalid band (%g, %g) Hz", b.Low, b.High)
	}
	return nil
}

// Estimate computes the relative band power of each channel: the PSD
// integrated over band divided by the PSD integrated over the full
// spectrum. data is channels x samples; fs is the sampling rate in Hz.
// The result is deterministic for identical input.
func Estimate(data [][]float64, fs float64, method Method, band Band) ([]float64, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("bandpower: empty data")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("bandpower: invalid sampling rate %g Hz", fs)
	}
	if err := band.validate(); err != nil {
		return nil, err
	}
	n := len(data[0])
	for ch, samples := range data {
		if len(samples) != n {
			return nil, fmt.Errorf("bandpower: channel %d has %d samples, want %d", ch, len(samples), n)
		}
	}

	out := make([]float64, len(data))
	for ch, samples := range data {
		var freqs, psd []float64
		var err error
		switch method {
		case Periodogram:
			freqs, psd = periodogram(samples, fs)
		case Welch:
			freqs, psd, err = welch(samples, fs)
		case Multitaper:
			freqs, psd = multitaper(samples, fs)
		default:
			return nil, fmt.Errorf("bandpower: unsupported method %q", method)
		}
		if err != nil {
			return nil, err
		}
		p, err := relativePower(freqs, psd, band)
		if err != nil {
			return nil, err
		}
		out[ch] = p
	}
	return out, nil
}

// periodogram returns the one-sided PSD of x with a rectangular window.
func periodogram(x []float64, fs float64) (freqs, psd []float64) {
	n := len(x)
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, x)

	freqs = make([]float64, len(coeffs))
	psd = make([]float64, len(coeffs))
	for i, c := range coeffs {
		freqs[i] = fs * float64(i) / float64(n)
		p := cmplx.Abs(c)
		psd[i] = p * p / (fs * float64(n))
	}
	onesided(psd, n)
	return freqs, psd
}

// welch returns the one-sided PSD of x averaged over Hann-windowed
// segments with 50 % overlap.
func welch(x []float64, fs float64) (freqs, psd []float64, err error) {
	seg := welchSegment
	if len(x) < seg {
		seg = len(x)
	}
	step := seg / 2
	if step == 0 {
		return nil, nil, fmt.Errorf("bandpower: window too short for welch (%d samples)", len(x))
	}

	// Window power normalization.
	win := window.Hann(ones(seg))
	var u float64
	for _, w := range win {
		u += w * w
	}

	fft := fourier.NewFFT(seg)
	nfreq := seg/2 + 1
	psd = make([]float64, nfreq)
	buf := make([]float64, seg)
	coeffs := make([]complex128, nfreq)

	var segments int
	for off := 0; off+seg <= len(x); off += step {
		copy(buf, x[off:off+seg])
		for i := range buf {
			buf[i] *= win[i]
		}
		fft.Coefficients(coeffs, buf)
		for i, c := range coeffs {
			p := cmplx.Abs(c)
			psd[i] += p * p / (fs * u)
		}
		segments++
	}
	for i := range psd {
		psd[i] /= float64(segments)
	}
	onesided(psd, seg)

	freqs = make([]float64, nfreq)
	for i := range freqs {
		freqs[i] = fs * float64(i) / float64(seg)
	}
	return freqs, psd, nil
}

// multitaper returns the one-sided PSD of x averaged over the Slepian
// tapered spectra. The tapers are unit-norm, so no window power
// normalization is needed.
func multitaper(x []float64, fs float64) (freqs, psd []float64) {
	n := len(x)
	tapers := dpssTapers(n)
	fft := fourier.NewFFT(n)
	nfreq := n/2 + 1

	psd = make([]float64, nfreq)
	buf := make([]float64, n)
	coeffs := make([]complex128, nfreq)
	for _, taper := range tapers {
		for i := range buf {
			buf[i] = x[i] * taper[i]
		}
		fft.Coefficients(coeffs, buf)
		for i, c := range coeffs {
			p := cmplx.Abs(c)
			psd[i] += p * p / fs
		}
	}
	for i := range psd {
		psd[i] /= float64(len(tapers))
	}
	onesided(psd, n)

	freqs = make([]float64, nfreq)
	for i := range freqs {
		freqs[i] = fs * float64(i) / float64(n)
	}
	return freqs, psd
}

// onesided doubles the interior bins of a half-spectrum PSD so that its
// integral matches the two-sided total power. n is the FFT length.
func onesided(psd []float64, n int) {
	last := len(psd) - 1
	for i := 1; i < last; i++ {
		psd[i] *= 2
	}
	// With an odd FFT length the last bin is not the Nyquist bin and
	// must be doubled as well.
	if n%2 != 0 && last > 0 {
		psd[last] *= 2
	}
}

// relativePower integrates psd over band and divides by the integral
// over the full spectrum.
func relativePower(freqs, psd []float64, band Band) (float64, error) {
	lo, hi := -1, -1
	for i, f := range freqs {
		if f >= band.Low && lo < 0 {
			lo = i
		}
		if f <= band.High {
			hi = i
		}
	}
	if lo < 0 || hi < lo || hi-lo < 1 {
		res := freqs[1] - freqs[0]
		return 0, fmt.Errorf("bandpower: band (%g, %g) Hz spans fewer than two bins at %g Hz resolution",
			band.Low, band.High, res)
	}

	num := integral(freqs[lo:hi+1], psd[lo:hi+1])
	den := integral(freqs, psd)
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// integral integrates f over x, preferring Simpson's rule.
func integral(x, f []float64) float64 {
	if len(x) < 3 {
		return integrate.Trapezoidal(x, f)
	}
	v := integrate.Simpsons(x, f)
	if math.IsNaN(v) {
		return integrate.Trapezoidal(x, f)
	}
	return v
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}
