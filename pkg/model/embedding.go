package model

import (
	"fmt"
	"math"

	"seq2seq/pkg/tensor"
)

// Embedding maps integer token ids to learned vectors scaled by
// sqrt(d_model). The scaling keeps embedding magnitudes commensurate
// with the sinusoidal positional encodings added afterwards.
type Embedding struct {
	Table  *tensor.Tensor // (vocab_size, d_model)
	DModel int
	scale  float64
}

// NewEmbedding creates an embedding table for vocabSize tokens of width
// dModel.
func NewEmbedding(vocabSize, dModel int) *Embedding {
	return &Embedding{
		Table:  tensor.NewTensor([]int{vocabSize, dModel}),
		DModel: dModel,
		scale:  math.Sqrt(float64(dModel)),
	}
}

// VocabSize returns the number of rows in the embedding table.
func (e *Embedding) VocabSize() int {
	return e.Table.Shape[0]
}

// Forward looks up a batch of token-id sequences and returns
// (batch, seq, d_model) vectors, each row multiplied by sqrt(d_model).
//
// Every sequence in the batch must have the same length, and every id
// must lie in [0, vocab); out-of-range ids are an error, never clamped.
func (e *Embedding) Forward(ids [][]int) (*tensor.Tensor, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty batch", tensor.ErrShapeMismatch)
	}
	seqLen := len(ids[0])
	if seqLen == 0 {
		return nil, fmt.Errorf("%w: empty sequence in batch", tensor.ErrShapeMismatch)
	}
	for b, seq := range ids {
		if len(seq) != seqLen {
			return nil, fmt.Errorf("%w: sequence %d has length %d, expected %d",
				tensor.ErrShapeMismatch, b, len(seq), seqLen)
		}
	}

	vocabSize := e.Table.Shape[0]
	out := tensor.NewTensor([]int{len(ids), seqLen, e.DModel})

	for b, seq := range ids {
		for s, id := range seq {
			if id < 0 || id >= vocabSize {
				return nil, fmt.Errorf("%w: token id %d at position (%d, %d), vocab size is %d",
					tensor.ErrIndexOutOfRange, id, b, s, vocabSize)
			}
			src := e.Table.Data[id*e.DModel : (id+1)*e.DModel]
			dst := out.Data[(b*seqLen+s)*e.DModel : (b*seqLen+s+1)*e.DModel]
			for i, v := range src {
				dst[i] = v * e.scale
			}
		}
	}
	return out, nil
}

// Parameters returns the learnable tensors: the embedding table.
func (e *Embedding) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{e.Table}
}
