package fit

import "math"

// Adam applies bias-corrected adaptive moment steps to a flat parameter
// vector. Construct with NewAdam; the zero value has no learning rate.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v []float64
	step int
}

// NewAdam returns an optimizer with the usual defaults for the moment
// decay rates and epsilon.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Step updates x in place from the gradient of the loss at x. The moment
// buffers are sized on first use and the vector length must not change
// afterwards.
func (a *Adam) Step(x, grad []float64) {
	if len(x) != len(grad) {
		panic(badParams)
	}
	if a.m == nil {
		a.m = make([]float64, len(x))
		a.v = make([]float64, len(x))
	}
	if len(a.m) != len(x) {
		panic(badParams)
	}
	a.step++
	c1 := 1 - math.Pow(a.Beta1, float64(a.step))
	c2 := 1 - math.Pow(a.Beta2, float64(a.step))
	for i, g := range grad {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		x[i] -= a.LearningRate * (a.m[i] / c1) / (math.Sqrt(a.v[i]/c2) + a.Epsilon)
	}
}
