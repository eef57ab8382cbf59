package model

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"seq2seq/pkg/tensor"
)

// EncoderDecoder is the full sequence-transduction model: source and
// target embeddings with positional encoding, the encoder and decoder
// stacks, and the output projection.
//
// Encode and Decode are exposed separately so an external decoding
// collaborator can reuse a single encoder pass across many decode steps;
// Forward composes them with the generator.
type EncoderDecoder struct {
	Config Config

	SrcEmbed *Embedding
	TgtEmbed *Embedding
	SrcPos   *PositionalEncoding
	TgtPos   *PositionalEncoding

	Encoder   *Encoder
	Decoder   *Decoder
	Generator *Generator

	Training bool // If false, all dropout sites are disabled
}

// NewEncoderDecoder builds and initializes the full model for the given
// configuration.
func NewEncoderDecoder(cfg Config) (*EncoderDecoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	encoder, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	decoder, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	m := &EncoderDecoder{
		Config:    cfg,
		SrcEmbed:  NewEmbedding(cfg.SrcVocabSize, cfg.DModel),
		TgtEmbed:  NewEmbedding(cfg.TgtVocabSize, cfg.DModel),
		SrcPos:    NewPositionalEncoding(cfg.DModel, cfg.MaxLen, cfg.Dropout),
		TgtPos:    NewPositionalEncoding(cfg.DModel, cfg.MaxLen, cfg.Dropout),
		Encoder:   encoder,
		Decoder:   decoder,
		Generator: NewGenerator(cfg.DModel, cfg.TgtVocabSize),
		Training:  true,
	}

	initializeWeights(m)
	return m, nil
}

// SetTraining sets the training mode for the model.
// When training=false, dropout is disabled everywhere.
func (m *EncoderDecoder) SetTraining(training bool) {
	m.Training = training
}

// Encode embeds the source token ids, adds positional encodings and runs
// the encoder stack.
//
// Input: src (batch, seq_src) token ids, srcMask broadcastable over the
// source attention scores (typically a padding mask).
// Output: memory of shape (batch, seq_src, d_model).
func (m *EncoderDecoder) Encode(src [][]int, srcMask *tensor.Tensor) (*tensor.Tensor, error) {
	x, err := m.SrcEmbed.Forward(src)
	if err != nil {
		return nil, fmt.Errorf("failed to embed source: %w", err)
	}
	x, err = m.SrcPos.Forward(x, m.Training)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source positions: %w", err)
	}
	return m.Encoder.Forward(x, srcMask, m.Training)
}

// Decode embeds the target token ids, adds positional encodings and runs
// the decoder stack against the encoder memory.
//
// tgtMask must encode both causal ordering and target-side padding.
// Output shape: (batch, seq_tgt, d_model).
func (m *EncoderDecoder) Decode(memory, srcMask *tensor.Tensor, tgt [][]int, tgtMask *tensor.Tensor) (*tensor.Tensor, error) {
	x, err := m.TgtEmbed.Forward(tgt)
	if err != nil {
		return nil, fmt.Errorf("failed to embed target: %w", err)
	}
	x, err = m.TgtPos.Forward(x, m.Training)
	if err != nil {
		return nil, fmt.Errorf("failed to encode target positions: %w", err)
	}
	return m.Decoder.Forward(x, memory, srcMask, tgtMask, m.Training)
}

// Forward runs the full pass: encode, decode, project.
//
// Output shape: (batch, seq_tgt, tgt_vocab_size) log-probabilities.
func (m *EncoderDecoder) Forward(src, tgt [][]int, srcMask, tgtMask *tensor.Tensor) (*tensor.Tensor, error) {
	memory, err := m.Encode(src, srcMask)
	if err != nil {
		return nil, err
	}
	out, err := m.Decode(memory, srcMask, tgt, tgtMask)
	if err != nil {
		return nil, err
	}
	return m.Generator.Forward(out)
}

// Parameters returns every learnable tensor in the model, composed
// recursively from all components. The external training collaborator
// enumerates and mutates parameters through this; the forward pass only
// reads them.
func (m *EncoderDecoder) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	params = append(params, m.SrcEmbed.Parameters()...)
	params = append(params, m.TgtEmbed.Parameters()...)
	params = append(params, m.Encoder.Parameters()...)
	params = append(params, m.Decoder.Parameters()...)
	params = append(params, m.Generator.Parameters()...)
	return params
}

// initRand is a package-level generator for weight initialization.
var initRand *rand.Rand

// SetInitSeed seeds the weight-initialization generator (useful for
// reproducible tests).
func SetInitSeed(seed uint64) {
	initRand = rand.New(rand.NewSource(seed))
}

// initializeWeights applies Xavier/Glorot uniform initialization to every
// matrix-shaped parameter. Vector parameters (biases, LayerNorm
// scale/shift) keep their constructor values.
func initializeWeights(m *EncoderDecoder) {
	if initRand == nil {
		initRand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	for _, p := range m.Parameters() {
		if p.NumDims() >= 2 {
			xavierUniformInit(p)
		}
	}
}

// xavierUniformInit fills a tensor with U[-limit, limit] where
// limit = sqrt(6 / (fan_in + fan_out)) over the last two dimensions.
func xavierUniformInit(t *tensor.Tensor) {
	fanIn := t.Shape[len(t.Shape)-2]
	fanOut := t.Shape[len(t.Shape)-1]
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))

	for i := range t.Data {
		t.Data[i] = initRand.Float64()*2*limit - limit
	}
}
