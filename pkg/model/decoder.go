package model

import (
	"fmt"

	"seq2seq/pkg/model/attention"
	"seq2seq/pkg/tensor"
)

// crossAttention adapts a MultiHead block to the Sublayer interface with
// the query taken from the decoder stream and key/value from the encoder
// memory carried in the Context.
type crossAttention struct {
	attn *attention.MultiHead
}

func (c crossAttention) Forward(x *tensor.Tensor, ctx *Context) (*tensor.Tensor, error) {
	if ctx == nil || ctx.Memory == nil {
		return nil, fmt.Errorf("%w: cross-attention requires encoder memory", tensor.ErrShapeMismatch)
	}
	return c.attn.Forward(x, ctx.Memory, ctx.Memory, ctx.MemoryMask, ctx.Training)
}

// DecoderLayer is one decoder block: masked self-attention over the
// decoder's own output, cross-attention into the encoder memory, and
// feed-forward, each wrapped in its own pre-norm residual connection.
type DecoderLayer struct {
	SelfAttn  *attention.MultiHead
	CrossAttn *attention.MultiHead
	FF        *FeedForward
	Residuals [3]*ResidualConnection
}

// NewDecoderLayer builds a freshly parameterized decoder layer.
func NewDecoderLayer(cfg Config) (*DecoderLayer, error) {
	selfAttn, err := attention.NewMultiHead(cfg.DModel, cfg.NumHeads, cfg.Dropout)
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder self-attention: %w", err)
	}
	crossAttn, err := attention.NewMultiHead(cfg.DModel, cfg.NumHeads, cfg.Dropout)
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder cross-attention: %w", err)
	}
	return &DecoderLayer{
		SelfAttn:  selfAttn,
		CrossAttn: crossAttn,
		FF:        NewFeedForward(cfg.DModel, cfg.FFHidden, cfg.Dropout),
		Residuals: [3]*ResidualConnection{
			NewResidualConnection(cfg.DModel, cfg.Eps, cfg.Dropout),
			NewResidualConnection(cfg.DModel, cfg.Eps, cfg.Dropout),
			NewResidualConnection(cfg.DModel, cfg.Eps, cfg.Dropout),
		},
	}, nil
}

// Forward applies masked self-attention, cross-attention into memory,
// and feed-forward, each with a residual connection.
//
// tgtMask must encode both causal ordering and target-side padding;
// srcMask guards padding positions of the memory.
//
// Input shape: x (batch, seq_tgt, d_model), memory (batch, seq_src,
// d_model); output shape matches x.
func (l *DecoderLayer) Forward(x, memory, srcMask, tgtMask *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	ctx := &Context{
		Mask:       tgtMask,
		Memory:     memory,
		MemoryMask: srcMask,
		Training:   training,
	}

	x, err := l.Residuals[0].Forward(x, selfAttention{l.SelfAttn}, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed in decoder self-attention sublayer: %w", err)
	}

	x, err = l.Residuals[1].Forward(x, crossAttention{l.CrossAttn}, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed in decoder cross-attention sublayer: %w", err)
	}

	x, err = l.Residuals[2].Forward(x, l.FF, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed in decoder feed-forward sublayer: %w", err)
	}
	return x, nil
}

// Parameters returns the learnable tensors of the layer.
func (l *DecoderLayer) Parameters() []*tensor.Tensor {
	params := l.SelfAttn.Parameters()
	params = append(params, l.CrossAttn.Parameters()...)
	params = append(params, l.FF.Parameters()...)
	for _, r := range l.Residuals {
		params = append(params, r.Parameters()...)
	}
	return params
}

// Decoder is a stack of N independently parameterized decoder layers
// followed by a final layer normalization.
type Decoder struct {
	Layers []*DecoderLayer
	Norm   *LayerNorm
}

// NewDecoder builds the decoder stack: one fresh layer per depth index,
// no parameter sharing across depth.
func NewDecoder(cfg Config) (*Decoder, error) {
	layers := make([]*DecoderLayer, cfg.NumLayers)
	for i := range layers {
		layer, err := NewDecoderLayer(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build decoder layer %d: %w", i, err)
		}
		layers[i] = layer
	}
	return &Decoder{
		Layers: layers,
		Norm:   NewLayerNorm(cfg.DModel, cfg.Eps),
	}, nil
}

// Forward passes x through every layer in order and normalizes the result.
//
// Input shape: x (batch, seq_tgt, d_model), memory (batch, seq_src,
// d_model); output shape matches x.
func (d *Decoder) Forward(x, memory, srcMask, tgtMask *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	var err error
	for i, layer := range d.Layers {
		x, err = layer.Forward(x, memory, srcMask, tgtMask, training)
		if err != nil {
			return nil, fmt.Errorf("failed in decoder layer %d: %w", i, err)
		}
	}
	return d.Norm.Forward(x)
}

// Parameters returns the learnable tensors of all layers plus the final
// normalization.
func (d *Decoder) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, layer := range d.Layers {
		params = append(params, layer.Parameters()...)
	}
	return append(params, d.Norm.Parameters()...)
}
