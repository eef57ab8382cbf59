package model

import (
	"fmt"

	"seq2seq/pkg/model/attention"
	"seq2seq/pkg/tensor"
)

// selfAttention adapts a MultiHead block to the Sublayer interface with
// query = key = value = x and the mask taken from the Context.
type selfAttention struct {
	attn *attention.MultiHead
}

func (s selfAttention) Forward(x *tensor.Tensor, ctx *Context) (*tensor.Tensor, error) {
	var mask *tensor.Tensor
	training := false
	if ctx != nil {
		mask = ctx.Mask
		training = ctx.Training
	}
	return s.attn.Forward(x, x, x, mask, training)
}

// EncoderLayer is one encoder block: self-attention and feed-forward,
// each wrapped in its own pre-norm residual connection.
type EncoderLayer struct {
	SelfAttn  *attention.MultiHead
	FF        *FeedForward
	Residuals [2]*ResidualConnection
}

// NewEncoderLayer builds a freshly parameterized encoder layer.
func NewEncoderLayer(cfg Config) (*EncoderLayer, error) {
	attn, err := attention.NewMultiHead(cfg.DModel, cfg.NumHeads, cfg.Dropout)
	if err != nil {
		return nil, fmt.Errorf("failed to build encoder self-attention: %w", err)
	}
	return &EncoderLayer{
		SelfAttn: attn,
		FF:       NewFeedForward(cfg.DModel, cfg.FFHidden, cfg.Dropout),
		Residuals: [2]*ResidualConnection{
			NewResidualConnection(cfg.DModel, cfg.Eps, cfg.Dropout),
			NewResidualConnection(cfg.DModel, cfg.Eps, cfg.Dropout),
		},
	}, nil
}

// Forward applies self-attention then feed-forward, each with a residual
// connection.
//
// Input shape: (batch, seq, d_model); output shape is identical.
func (l *EncoderLayer) Forward(x, srcMask *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	ctx := &Context{Mask: srcMask, Training: training}

	x, err := l.Residuals[0].Forward(x, selfAttention{l.SelfAttn}, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed in encoder self-attention sublayer: %w", err)
	}

	x, err = l.Residuals[1].Forward(x, l.FF, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed in encoder feed-forward sublayer: %w", err)
	}
	return x, nil
}

// Parameters returns the learnable tensors of the layer.
func (l *EncoderLayer) Parameters() []*tensor.Tensor {
	params := l.SelfAttn.Parameters()
	params = append(params, l.FF.Parameters()...)
	for _, r := range l.Residuals {
		params = append(params, r.Parameters()...)
	}
	return params
}

// Encoder is a stack of N independently parameterized encoder layers
// followed by a final layer normalization. Each forward invocation is a
// pure function of (input, mask) and the current parameters.
type Encoder struct {
	Layers []*EncoderLayer
	Norm   *LayerNorm
}

// NewEncoder builds the encoder stack: one fresh layer per depth index,
// no parameter sharing across depth.
func NewEncoder(cfg Config) (*Encoder, error) {
	layers := make([]*EncoderLayer, cfg.NumLayers)
	for i := range layers {
		layer, err := NewEncoderLayer(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build encoder layer %d: %w", i, err)
		}
		layers[i] = layer
	}
	return &Encoder{
		Layers: layers,
		Norm:   NewLayerNorm(cfg.DModel, cfg.Eps),
	}, nil
}

// Forward passes x through every layer in order and normalizes the result.
//
// Input shape: (batch, seq, d_model); output shape is identical.
func (e *Encoder) Forward(x, srcMask *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	var err error
	for i, layer := range e.Layers {
		x, err = layer.Forward(x, srcMask, training)
		if err != nil {
			return nil, fmt.Errorf("failed in encoder layer %d: %w", i, err)
		}
	}
	return e.Norm.Forward(x)
}

// Parameters returns the learnable tensors of all layers plus the final
// normalization.
func (e *Encoder) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, layer := range e.Layers {
		params = append(params, layer.Parameters()...)
	}
	return append(params, e.Norm.Parameters()...)
}
