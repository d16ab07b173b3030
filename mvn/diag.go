package mvn

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/deepgp/deepgp/prng"
)

// Diag is a normal distribution with independent components.
type Diag struct {
	mean  []float64
	scale []float64
}

// NewDiag returns N(mean, diag(scale²)). The scale entries are standard
// deviations and must be positive.
func NewDiag(mean, scale []float64) *Diag {
	if len(mean) != len(scale) {
		panic(badLength)
	}
	for _, s := range scale {
		if !(s > 0) {
			panic(badScale)
		}
	}
	d := &Diag{
		mean:  make([]float64, len(mean)),
		scale: make([]float64, len(scale)),
	}
	copy(d.mean, mean)
	copy(d.scale, scale)
	return d
}

func (d *Diag) Dim() int { return len(d.mean) }

func (d *Diag) Mean(dst []float64) []float64 {
	dst = reuse(dst, len(d.mean))
	copy(dst, d.mean)
	return dst
}

// Scale returns the per-component standard deviations stored into dst. If
// dst is nil new memory is allocated.
func (d *Diag) Scale(dst []float64) []float64 {
	dst = reuse(dst, len(d.scale))
	copy(dst, d.scale)
	return dst
}

func (d *Diag) CovarianceMatrix(dst *mat.SymDense) *mat.SymDense {
	n := d.Dim()
	dst = reuseSym(dst, n)
	for i := 0; i < n; i++ {
		dst.SetSym(i, i, d.scale[i]*d.scale[i])
		for j := i + 1; j < n; j++ {
			dst.SetSym(i, j, 0)
		}
	}
	return dst
}

func (d *Diag) LogProb(y []float64) float64 {
	if len(y) != d.Dim() {
		panic(badLength)
	}
	var lp float64
	for i, yi := range y {
		lp += distuv.Normal{Mu: d.mean[i], Sigma: d.scale[i]}.LogProb(yi)
	}
	return lp
}

func (d *Diag) Sample(key prng.Key, n int) *mat.Dense {
	if n <= 0 {
		panic(badSampleCount)
	}
	std := distuv.Normal{Mu: 0, Sigma: 1, Src: key.Source()}
	out := mat.NewDense(n, d.Dim(), nil)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] = d.mean[j] + d.scale[j]*std.Rand()
		}
	}
	return out
}

// Shifted returns a Diag with delta added to the mean.
func (d *Diag) Shifted(delta []float64) Dist {
	if len(delta) != d.Dim() {
		panic(badLength)
	}
	out := &Diag{
		mean:  make([]float64, d.Dim()),
		scale: d.scale,
	}
	for i := range out.mean {
		out.mean[i] = d.mean[i] + delta[i]
	}
	return out
}
