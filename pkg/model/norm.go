package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"seq2seq/pkg/tensor"
)

// LayerNorm normalizes the last (feature) dimension and applies a learned
// per-feature scale and shift:
//
//	out = gamma * (x - mean) / (std + eps) + beta
//
// Note that eps is added to the standard deviation itself, not to the
// variance inside the square root. This deviates slightly from the usual
// formulation and is preserved exactly for reproducibility.
type LayerNorm struct {
	Gamma *tensor.Tensor // (features,) scale, initialized to 1
	Beta  *tensor.Tensor // (features,) shift, initialized to 0
	Eps   float64
}

// NewLayerNorm creates a LayerNorm over the given feature width with
// gamma=1 and beta=0.
func NewLayerNorm(features int, eps float64) *LayerNorm {
	gamma := tensor.NewTensor([]int{features})
	for i := range gamma.Data {
		gamma.Data[i] = 1.0
	}
	return &LayerNorm{
		Gamma: gamma,
		Beta:  tensor.NewTensor([]int{features}),
		Eps:   eps,
	}
}

// Forward normalizes each position independently along the feature axis.
//
// Input shape: (..., features); output shape is identical.
func (ln *LayerNorm) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) == 0 {
		return nil, fmt.Errorf("%w: cannot apply LayerNorm to 0D tensor", tensor.ErrShapeMismatch)
	}
	features := x.Shape[len(x.Shape)-1]
	if features != len(ln.Gamma.Data) {
		return nil, fmt.Errorf("%w: input feature dimension %d does not match LayerNorm width %d",
			tensor.ErrShapeMismatch, features, len(ln.Gamma.Data))
	}

	result := tensor.NewTensor(x.Shape)
	for offset := 0; offset < len(x.Data); offset += features {
		row := x.Data[offset : offset+features]
		dst := result.Data[offset : offset+features]

		mean := stat.Mean(row, nil)
		std := math.Sqrt(stat.Variance(row, nil))

		inv := 1.0 / (std + ln.Eps)
		for i, v := range row {
			dst[i] = ln.Gamma.Data[i]*(v-mean)*inv + ln.Beta.Data[i]
		}
	}
	return result, nil
}

// Parameters returns the learnable tensors: gamma and beta.
func (ln *LayerNorm) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{ln.Gamma, ln.Beta}
}
