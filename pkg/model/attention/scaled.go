// Package attention implements the attention primitives of the
// encoder-decoder transformer: scaled dot-product attention and its
// multi-head composition.
package attention

import (
	"fmt"
	"math"

	"seq2seq/pkg/tensor"
)

// maskFill is the score assigned to masked positions before softmax.
// Large enough in magnitude that the resulting weight underflows to ~0,
// small enough that exp never overflows after max-subtraction.
const maskFill = -1e9

// ScaledDotProduct computes scaled dot-product attention:
//
//	Attention(Q, K, V) = softmax(QK^T / sqrt(d_k)) V
//
// Input shapes:
//   - query: (..., seq_q, d_k)
//   - key:   (..., seq_k, d_k)
//   - value: (..., seq_k, d_v)
//   - mask:  optional, broadcastable to (..., seq_q, seq_k); positions
//     where the mask is 0 receive a large negative score before softmax
//
// A fully-masked row degenerates to a uniform distribution over the
// penalized scores; that is accepted behavior, not an error.
//
// Returns the aggregated values (..., seq_q, d_v) and the attention
// weights (..., seq_q, seq_k). Dropout is applied to the weights used
// for aggregation when training is true.
func ScaledDotProduct(query, key, value, mask *tensor.Tensor, dropout float64, training bool) (*tensor.Tensor, *tensor.Tensor, error) {
	if len(query.Shape) < 2 || len(key.Shape) < 2 || len(value.Shape) < 2 {
		return nil, nil, fmt.Errorf("%w: attention inputs must be at least 2D, got %dD/%dD/%dD",
			tensor.ErrShapeMismatch, len(query.Shape), len(key.Shape), len(value.Shape))
	}

	dk := query.Shape[len(query.Shape)-1]
	if dk <= 0 {
		return nil, nil, fmt.Errorf("%w: d_k must be positive, got %d", tensor.ErrShapeMismatch, dk)
	}
	if key.Shape[len(key.Shape)-1] != dk {
		return nil, nil, fmt.Errorf("%w: query d_k %d does not match key d_k %d",
			tensor.ErrShapeMismatch, dk, key.Shape[len(key.Shape)-1])
	}
	if key.Shape[len(key.Shape)-2] != value.Shape[len(value.Shape)-2] {
		return nil, nil, fmt.Errorf("%w: key seq_len %d does not match value seq_len %d",
			tensor.ErrShapeMismatch, key.Shape[len(key.Shape)-2], value.Shape[len(value.Shape)-2])
	}

	// scores = Q K^T / sqrt(d_k): (..., seq_q, seq_k)
	keyT, err := key.Transpose(len(key.Shape)-2, len(key.Shape)-1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to transpose key: %w", err)
	}
	scores, err := tensor.Matmul(query, keyT)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute attention scores: %w", err)
	}
	scores = scores.Scale(1.0 / math.Sqrt(float64(dk)))

	if mask != nil {
		scores, err = tensor.MaskedFill(scores, mask, maskFill)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to apply attention mask: %w", err)
		}
	}

	// Normalize per query position; weights are non-negative and sum to 1
	// over the key axis.
	weights := tensor.SoftmaxLast(scores)

	dropped := weights
	if dropout > 0 && training {
		dropped = weights.Dropout(dropout, training)
	}

	out, err := tensor.Matmul(dropped, value)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate values: %w", err)
	}
	return out, weights, nil
}
