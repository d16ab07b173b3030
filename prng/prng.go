// Package prng provides deterministic, splittable random keys.
//
// Every stochastic operation in this module takes an explicit Key. Keys are
// values: deriving subkeys never mutates the parent, so a draw is
// reproducible from its key alone, independent of call order elsewhere in
// the program.
package prng

import "math/rand/v2"

// Key identifies a deterministic random stream.
type Key struct {
	seed uint64
}

// NewKey returns the key rooted at seed.
func NewKey(seed uint64) Key {
	return Key{seed: mix(seed)}
}

// Fold derives a subkey by mixing data into the stream identity. Distinct
// data values give statistically independent subkeys.
func (k Key) Fold(data uint64) Key {
	return Key{seed: mix(k.seed ^ mix(data+0x9e3779b97f4a7c15))}
}

// Split returns two independent subkeys. It is shorthand for the first two
// results of SplitN.
func (k Key) Split() (Key, Key) {
	return k.Fold(0), k.Fold(1)
}

// SplitN returns n independent subkeys.
func (k Key) SplitN(n int) []Key {
	if n <= 0 {
		panic("prng: non-positive key count")
	}
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = k.Fold(uint64(i))
	}
	return keys
}

// Source returns a rand source seeded by the key. Each call returns a fresh
// source positioned at the start of the key's stream.
func (k Key) Source() rand.Source {
	return rand.NewPCG(k.seed, mix(k.seed))
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
