package model

import (
	"fmt"

	"seq2seq/pkg/tensor"
)

// FeedForward is the position-wise two-layer transform:
//
//	FFN(x) = Linear2(dropout(ReLU(Linear1(x))))
//
// Linear1 maps d_model to d_ff, Linear2 maps d_ff back to d_model.
// No mixing happens across sequence positions.
type FeedForward struct {
	Linear1 *Linear // (d_model, d_ff)
	Linear2 *Linear // (d_ff, d_model)
	Dropout float64
}

// NewFeedForward creates a feed-forward block.
func NewFeedForward(dModel, dFF int, dropout float64) *FeedForward {
	return &FeedForward{
		Linear1: NewLinear(dModel, dFF),
		Linear2: NewLinear(dFF, dModel),
		Dropout: dropout,
	}
}

// Forward computes the feed-forward transform. The Context is consulted
// only for the training flag.
//
// Input shape: (..., d_model); output shape is identical.
func (ff *FeedForward) Forward(x *tensor.Tensor, ctx *Context) (*tensor.Tensor, error) {
	hidden, err := ff.Linear1.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("failed to apply first feed-forward layer: %w", err)
	}

	hidden = hidden.ReLU()

	if ff.Dropout > 0 && ctx != nil && ctx.Training {
		hidden = hidden.Dropout(ff.Dropout, true)
	}

	out, err := ff.Linear2.Forward(hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to apply second feed-forward layer: %w", err)
	}
	return out, nil
}

// Parameters returns the learnable tensors of both linear layers.
func (ff *FeedForward) Parameters() []*tensor.Tensor {
	return append(ff.Linear1.Parameters(), ff.Linear2.Parameters()...)
}
