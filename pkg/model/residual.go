package model

import (
	"fmt"

	"seq2seq/pkg/tensor"
)

// Context carries the per-call arguments a sublayer needs beyond the
// hidden state itself: attention masks, the encoder memory for
// cross-attention, and the training flag gating dropout. Passing it
// explicitly keeps sublayers free of captured call-site state.
type Context struct {
	Mask       *tensor.Tensor // self-attention mask, or nil
	Memory     *tensor.Tensor // encoder output, for cross-attention
	MemoryMask *tensor.Tensor // source mask guarding the memory
	Training   bool
}

// Sublayer is a shape-preserving transform of the hidden state. Both
// attention (with its arguments bound from the Context) and feed-forward
// blocks implement it, so ResidualConnection can wrap either.
type Sublayer interface {
	Forward(x *tensor.Tensor, ctx *Context) (*tensor.Tensor, error)
}

// ResidualConnection wraps a sublayer with the pre-norm residual pattern:
//
//	out = x + dropout(sublayer(LayerNorm(x)))
//
// The sublayer is invoked exactly once per call; its output must have
// the same shape as x.
type ResidualConnection struct {
	Norm    *LayerNorm
	Dropout float64
}

// NewResidualConnection creates a residual wrapper with its own
// normalization parameters.
func NewResidualConnection(features int, eps, dropout float64) *ResidualConnection {
	return &ResidualConnection{
		Norm:    NewLayerNorm(features, eps),
		Dropout: dropout,
	}
}

// Forward applies the wrapped sublayer to the normalized input and adds
// the result back onto x.
func (r *ResidualConnection) Forward(x *tensor.Tensor, sub Sublayer, ctx *Context) (*tensor.Tensor, error) {
	normed, err := r.Norm.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize sublayer input: %w", err)
	}

	y, err := sub.Forward(normed, ctx)
	if err != nil {
		return nil, err
	}
	if !y.ShapeEquals(x) {
		return nil, fmt.Errorf("%w: sublayer output shape %v does not match input shape %v",
			tensor.ErrShapeMismatch, y.Shape, x.Shape)
	}

	if r.Dropout > 0 && ctx != nil && ctx.Training {
		y = y.Dropout(r.Dropout, true)
	}
	return tensor.Add(x, y)
}

// Parameters returns the learnable tensors of the wrapper: its
// normalization scale and shift.
func (r *ResidualConnection) Parameters() []*tensor.Tensor {
	return r.Norm.Parameters()
}
