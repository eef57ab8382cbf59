package model

import (
	"fmt"

	"seq2seq/pkg/tensor"
)

// Generator is the output projection: a linear map from d_model to the
// target vocabulary followed by log-softmax. The returned values
// exponentiate to a probability distribution summing to 1 per position.
type Generator struct {
	Proj *Linear // (d_model, vocab_size)
}

// NewGenerator creates the output projection.
func NewGenerator(dModel, vocabSize int) *Generator {
	return &Generator{Proj: NewLinear(dModel, vocabSize)}
}

// Forward maps decoder output to log-probabilities over the vocabulary.
//
// Input shape: (batch, seq, d_model)
// Output shape: (batch, seq, vocab_size)
func (g *Generator) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	logits, err := g.Proj.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("failed to project to vocabulary: %w", err)
	}
	return tensor.LogSoftmax(logits), nil
}

// Parameters returns the learnable tensors of the projection.
func (g *Generator) Parameters() []*tensor.Tensor {
	return g.Proj.Parameters()
}
