package challenge

import "math/rand/v2"

// Source produces the random bytes challenges are built from.
type Source interface {
	Uint8() uint8
}

type randSource struct{}

// NewRandSource returns a Source backed by the runtime's random generator.
func NewRandSource() Source {
	return randSource{}
}

func (randSource) Uint8() uint8 {
	return uint8(rand.UintN(256))
}
