package model

import (
	"fmt"

	"seq2seq/pkg/tensor"
)

// Linear is an affine map applied to the last dimension:
//
//	y = x @ Weight + Bias
//
// Weight has shape (in, out), Bias shape (out).
type Linear struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor
}

// NewLinear creates a linear layer mapping in features to out features.
func NewLinear(in, out int) *Linear {
	return &Linear{
		Weight: tensor.NewTensor([]int{in, out}),
		Bias:   tensor.NewTensor([]int{out}),
	}
}

// Forward applies the affine map. The input's last dimension must match
// the layer's input width; all leading dimensions pass through unchanged.
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) < 2 {
		return nil, fmt.Errorf("%w: linear expects at least 2D input, got %dD",
			tensor.ErrShapeMismatch, len(x.Shape))
	}
	if x.Shape[len(x.Shape)-1] != l.Weight.Shape[0] {
		return nil, fmt.Errorf("%w: input dimension %d does not match linear input width %d",
			tensor.ErrShapeMismatch, x.Shape[len(x.Shape)-1], l.Weight.Shape[0])
	}

	out, err := tensor.Matmul(x, l.Weight)
	if err != nil {
		return nil, fmt.Errorf("failed to apply linear weight: %w", err)
	}
	out, err = tensor.Add(out, l.Bias)
	if err != nil {
		return nil, fmt.Errorf("failed to add linear bias: %w", err)
	}
	return out, nil
}

// Parameters returns the learnable tensors: weight and bias.
func (l *Linear) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{l.Weight, l.Bias}
}
