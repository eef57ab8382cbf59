package model

import (
	"fmt"
	"math"

	"seq2seq/pkg/tensor"
)

// PositionalEncoding injects deterministic sinusoidal position signals
// into the hidden state. The encoding table is computed once at
// construction and never learned:
//
//	PE(pos, 2i)   = sin(pos / 10000^(2i/d_model))
//	PE(pos, 2i+1) = cos(pos / 10000^(2i/d_model))
type PositionalEncoding struct {
	Table   *tensor.Tensor // (max_len, d_model), fixed
	MaxLen  int
	Dropout float64
}

// NewPositionalEncoding precomputes encodings for positions 0..maxLen-1.
func NewPositionalEncoding(dModel, maxLen int, dropout float64) *PositionalEncoding {
	table := tensor.NewTensor([]int{maxLen, dModel})
	for pos := 0; pos < maxLen; pos++ {
		row := table.Data[pos*dModel : (pos+1)*dModel]
		for i := 0; i < dModel; i += 2 {
			angle := float64(pos) / math.Pow(10000, float64(i)/float64(dModel))
			row[i] = math.Sin(angle)
			if i+1 < dModel {
				row[i+1] = math.Cos(angle)
			}
		}
	}
	return &PositionalEncoding{
		Table:   table,
		MaxLen:  maxLen,
		Dropout: dropout,
	}
}

// Forward adds the positional encodings for positions 0..seq_len-1 to the
// input and applies dropout.
//
// Input shape: (batch, seq, d_model); output shape is identical.
// Sequences longer than MaxLen are an error.
func (pe *PositionalEncoding) Forward(x *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	if len(x.Shape) != 3 {
		return nil, fmt.Errorf("%w: expected 3D input (batch, seq, d_model), got %dD",
			tensor.ErrShapeMismatch, len(x.Shape))
	}
	seqLen, dModel := x.Shape[1], x.Shape[2]
	if dModel != pe.Table.Shape[1] {
		return nil, fmt.Errorf("%w: input d_model %d does not match encoding width %d",
			tensor.ErrShapeMismatch, dModel, pe.Table.Shape[1])
	}
	if seqLen > pe.MaxLen {
		return nil, fmt.Errorf("%w: sequence length %d exceeds positional encoding horizon %d",
			tensor.ErrIndexOutOfRange, seqLen, pe.MaxLen)
	}

	// Truncate the table to seq_len rows; it broadcasts over the batch.
	encodings := &tensor.Tensor{
		Data:    pe.Table.Data[:seqLen*dModel],
		Shape:   []int{seqLen, dModel},
		Strides: pe.Table.Strides,
	}
	out, err := tensor.Add(x, encodings)
	if err != nil {
		return nil, fmt.Errorf("failed to add positional encodings: %w", err)
	}

	if pe.Dropout > 0 && training {
		out = out.Dropout(pe.Dropout, training)
	}
	return out, nil
}
