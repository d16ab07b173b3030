// Package fit provides parameter-vector plumbing and optimizers for
// models trained by external differentiation.
//
// Losses are pure functions of a flat parameter vector; gradients come
// from central finite differences rather than from the models themselves.
package fit

import (
	"gonum.org/v1/gonum/diff/fd"
)

const badParams = "fit: parameter length mismatch"

// Parameterized exposes a flat view of a model's trainable parameters.
// Params and SetParams must agree on ordering, so a vector read from one
// value can be written back unchanged.
type Parameterized interface {
	// NumParams returns the parameter count.
	NumParams() int
	// Params returns the parameters stored into dst. If dst is nil new
	// memory is allocated.
	Params(dst []float64) []float64
	// SetParams replaces the parameters.
	SetParams(p []float64)
}

// Group concatenates several Parameterized values into one vector, in
// order.
type Group []Parameterized

func (g Group) NumParams() int {
	var n int
	for _, p := range g {
		n += p.NumParams()
	}
	return n
}

func (g Group) Params(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, g.NumParams())
	}
	if len(dst) != g.NumParams() {
		panic(badParams)
	}
	idx := 0
	for _, p := range g {
		n := p.NumParams()
		p.Params(dst[idx : idx+n])
		idx += n
	}
	return dst
}

func (g Group) SetParams(p []float64) {
	if len(p) != g.NumParams() {
		panic(badParams)
	}
	idx := 0
	for _, m := range g {
		n := m.NumParams()
		m.SetParams(p[idx : idx+n])
		idx += n
	}
}

// Gradient estimates ∇f at x by central finite differences, stored into
// dst. If dst is nil new memory is allocated.
func Gradient(dst []float64, f func([]float64) float64, x []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	if len(dst) != len(x) {
		panic(badParams)
	}
	fd.Gradient(dst, f, x, &fd.Settings{Formula: fd.Central})
	return dst
}
