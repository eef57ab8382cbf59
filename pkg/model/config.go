// Package model implements the encoder-decoder transformer of
// "Attention Is All You Need": token embedding with sqrt(d_model)
// scaling, sinusoidal positional encoding, multi-head attention wrapped
// in pre-norm residual sublayers, position-wise feed-forward blocks, and
// the stacked encoder/decoder assembly producing log-probabilities over
// the output vocabulary.
//
// The package only computes forward passes. Parameters are read-only
// during computation; enumerating them for an external trainer goes
// through the Parameters() methods on each component.
package model

import "fmt"

// Config holds the model hyperparameters.
type Config struct {
	// SrcVocabSize is the source-side vocabulary size.
	SrcVocabSize int

	// TgtVocabSize is the target-side vocabulary size.
	TgtVocabSize int

	// DModel is the width of the hidden representation at every stage (512 in the base model).
	DModel int

	// NumHeads is the number of attention heads (8). Must divide DModel.
	NumHeads int

	// FFHidden is the inner width of the feed-forward blocks (2048).
	FFHidden int

	// NumLayers is the encoder and decoder stack depth (6).
	NumLayers int

	// Dropout is the dropout rate applied at every dropout site (0.1).
	Dropout float64

	// MaxLen is the positional-encoding horizon (5000). Sequences longer
	// than this are rejected.
	MaxLen int

	// Eps is the layer-normalization stabilizer (1e-6).
	Eps float64
}

// DefaultConfig returns the base-model hyperparameters from the paper
// for the given vocabulary sizes.
func DefaultConfig(srcVocabSize, tgtVocabSize int) Config {
	return Config{
		SrcVocabSize: srcVocabSize,
		TgtVocabSize: tgtVocabSize,
		DModel:       512,
		NumHeads:     8,
		FFHidden:     2048,
		NumLayers:    6,
		Dropout:      0.1,
		MaxLen:       5000,
		Eps:          1e-6,
	}
}

// Validate checks if the configuration is valid and consistent.
// Returns an error if any parameters are incompatible.
func (c Config) Validate() error {
	if c.NumHeads <= 0 {
		return fmt.Errorf("num_heads must be positive, got %d", c.NumHeads)
	}
	if c.DModel%c.NumHeads != 0 {
		return fmt.Errorf("d_model (%d) must be divisible by num_heads (%d)", c.DModel, c.NumHeads)
	}
	if c.SrcVocabSize <= 0 || c.TgtVocabSize <= 0 {
		return fmt.Errorf("vocabulary sizes must be positive, got src=%d tgt=%d",
			c.SrcVocabSize, c.TgtVocabSize)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("num_layers must be positive, got %d", c.NumLayers)
	}
	if c.FFHidden <= 0 {
		return fmt.Errorf("ff_hidden must be positive, got %d", c.FFHidden)
	}
	if c.MaxLen <= 0 {
		return fmt.Errorf("max_len must be positive, got %d", c.MaxLen)
	}
	if c.Dropout < 0 || c.Dropout > 1 {
		return fmt.Errorf("dropout must be in [0, 1], got %g", c.Dropout)
	}
	return nil
}

// HeadDimension returns the per-head key/query dimension d_k.
func (c Config) HeadDimension() int {
	return c.DModel / c.NumHeads
}
