package bandpower

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Discrete prolate spheroidal sequences (Slepian tapers), computed from
// the symmetric tridiagonal formulation (Percival & Walden ch. 8). The
// tapers depend only on the window length for a fixed time-bandwidth
// product, so they are cached per length.

const (
	// multitaperNW is the time-bandwidth product.
	multitaperNW = 4
	// multitaperK is the taper count, the usual 2*NW - 1.
	multitaperK = 2*multitaperNW - 1
)

var dpssCache struct {
	sync.Mutex
	byLen map[int][][]float64
}

// dpssTapers returns the multitaperK best-concentrated unit-norm tapers
// of length n.
func dpssTapers(n int) [][]float64 {
	dpssCache.Lock()
	defer dpssCache.Unlock()
	if tapers, ok := dpssCache.byLen[n]; ok {
		return tapers
	}

	w := float64(multitaperNW) / float64(n)
	cos2piW := math.Cos(2 * math.Pi * w)
	a := mat.NewSymDense(n, nil)
	for t := 0; t < n; t++ {
		half := (float64(n-1) - 2*float64(t)) / 2
		a.SetSym(t, t, half*half*cos2piW)
		if t+1 < n {
			a.SetSym(t, t+1, float64(t+1)*float64(n-1-t)/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(a, true) {
		// Cannot happen for a finite symmetric matrix.
		panic("bandpower: dpss eigendecomposition failed")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	k := multitaperK
	if k > n {
		k = n
	}
	// Eigenvalues come out ascending, so the best-concentrated tapers
	// are the last k columns. Taper polarity is left as produced; the
	// spectra are squared downstream.
	tapers := make([][]float64, k)
	for i := 0; i < k; i++ {
		col := make([]float64, n)
		mat.Col(col, n-1-i, &vecs)
		tapers[i] = col
	}

	if dpssCache.byLen == nil {
		dpssCache.byLen = make(map[int][][]float64)
	}
	dpssCache.byLen[n] = tapers
	return tapers
}
