package tensor

import (
	"time"

	"golang.org/x/exp/rand"
)

// Dropout randomly zeros out elements with probability p during training,
// scaling the survivors by 1/(1-p) (inverted dropout). During inference
// (training=false), returns the input unchanged.
func (t *Tensor) Dropout(p float64, training bool) *Tensor {
	if !training || p == 0 {
		return t.Clone()
	}

	if p < 0 || p > 1 {
		panic("dropout probability must be between 0 and 1")
	}

	if dropoutRand == nil {
		dropoutRand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	result := NewTensor(t.Shape)
	scale := 1.0 / (1.0 - p)

	for i := range t.Data {
		if dropoutRand.Float64() >= p {
			result.Data[i] = t.Data[i] * scale
		}
	}
	return result
}

// dropoutRand is a package-level random number generator for dropout.
var dropoutRand *rand.Rand

// SetDropoutSeed seeds the dropout generator (useful for testing).
func SetDropoutSeed(seed uint64) {
	dropoutRand = rand.New(rand.NewSource(seed))
}

// ApplyDropout applies dropout to a tensor using the given probability and
// training mode. Convenience wrapper around the Dropout method.
func ApplyDropout(t *Tensor, p float64, training bool) *Tensor {
	return t.Dropout(p, training)
}
