package attention

import (
	"fmt"

	"seq2seq/pkg/tensor"
)

// MultiHead implements multi-head attention.
//
// The model dimension is split into NumHeads independent subspaces of
// size HeadDim = d_model / h. Query, key and value are each projected by
// a learned bias-free linear map, reshaped into heads, run through
// scaled dot-product attention in parallel, concatenated back to d_model
// and passed through a final bias-free output projection.
type MultiHead struct {
	NumHeads int
	DModel   int
	HeadDim  int
	Dropout  float64

	WQuery *tensor.Tensor // (d_model, d_model)
	WKey   *tensor.Tensor // (d_model, d_model)
	WValue *tensor.Tensor // (d_model, d_model)
	WOut   *tensor.Tensor // (d_model, d_model)
}

// NewMultiHead creates a multi-head attention block.
// Returns a shape-mismatch error if d_model is not divisible by numHeads.
func NewMultiHead(dModel, numHeads int, dropout float64) (*MultiHead, error) {
	if numHeads <= 0 {
		return nil, fmt.Errorf("%w: num_heads must be positive, got %d", tensor.ErrShapeMismatch, numHeads)
	}
	if dModel%numHeads != 0 {
		return nil, fmt.Errorf("%w: d_model (%d) must be divisible by num_heads (%d)",
			tensor.ErrShapeMismatch, dModel, numHeads)
	}

	return &MultiHead{
		NumHeads: numHeads,
		DModel:   dModel,
		HeadDim:  dModel / numHeads,
		Dropout:  dropout,
		WQuery:   tensor.NewTensor([]int{dModel, dModel}),
		WKey:     tensor.NewTensor([]int{dModel, dModel}),
		WValue:   tensor.NewTensor([]int{dModel, dModel}),
		WOut:     tensor.NewTensor([]int{dModel, dModel}),
	}, nil
}

// Forward computes multi-head attention.
//
// Input shapes:
//   - query: (batch, seq_q, d_model)
//   - key:   (batch, seq_k, d_model)
//   - value: (batch, seq_k, d_model)
//   - mask:  optional; (seq_q, seq_k), (batch, seq_q, seq_k) or
//     (batch, 1, seq_q, seq_k). A batched mask is broadcast across the
//     head dimension.
//
// Output shape: (batch, seq_q, d_model)
func (m *MultiHead) Forward(query, key, value, mask *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	if len(query.Shape) != 3 || len(key.Shape) != 3 || len(value.Shape) != 3 {
		return nil, fmt.Errorf("%w: expected 3D inputs (batch, seq, d_model), got %dD/%dD/%dD",
			tensor.ErrShapeMismatch, len(query.Shape), len(key.Shape), len(value.Shape))
	}

	batchSize, seqQ := query.Shape[0], query.Shape[1]
	seqK := key.Shape[1]

	for name, t := range map[string]*tensor.Tensor{"query": query, "key": key, "value": value} {
		if t.Shape[2] != m.DModel {
			return nil, fmt.Errorf("%w: %s dimension %d does not match d_model %d",
				tensor.ErrShapeMismatch, name, t.Shape[2], m.DModel)
		}
	}
	if key.Shape[0] != batchSize || value.Shape[0] != batchSize {
		return nil, fmt.Errorf("%w: batch sizes differ: query %d, key %d, value %d",
			tensor.ErrShapeMismatch, batchSize, key.Shape[0], value.Shape[0])
	}
	if value.Shape[1] != seqK {
		return nil, fmt.Errorf("%w: key seq_len %d does not match value seq_len %d",
			tensor.ErrShapeMismatch, seqK, value.Shape[1])
	}

	// Step 1: Linear projections, still (batch, seq, d_model).
	q, err := tensor.Matmul(query, m.WQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to project query: %w", err)
	}
	k, err := tensor.Matmul(key, m.WKey)
	if err != nil {
		return nil, fmt.Errorf("failed to project key: %w", err)
	}
	v, err := tensor.Matmul(value, m.WValue)
	if err != nil {
		return nil, fmt.Errorf("failed to project value: %w", err)
	}

	// Step 2: Split heads: (batch, seq, d_model) -> (batch, h, seq, head_dim).
	q, err = q.Reshape([]int{batchSize, seqQ, m.NumHeads, m.HeadDim}).Transpose(1, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to split query heads: %w", err)
	}
	k, err = k.Reshape([]int{batchSize, seqK, m.NumHeads, m.HeadDim}).Transpose(1, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to split key heads: %w", err)
	}
	v, err = v.Reshape([]int{batchSize, seqK, m.NumHeads, m.HeadDim}).Transpose(1, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to split value heads: %w", err)
	}

	// Step 3: Broadcast the mask across heads.
	headMask, err := m.broadcastMask(mask, batchSize, seqQ, seqK)
	if err != nil {
		return nil, err
	}

	// Step 4: Scaled dot-product attention over all heads at once; the
	// head axis rides along as a batch dimension.
	attnOut, _, err := ScaledDotProduct(q, k, v, headMask, m.Dropout, training)
	if err != nil {
		return nil, fmt.Errorf("failed to compute per-head attention: %w", err)
	}

	// Step 5: Merge heads: (batch, h, seq_q, head_dim) -> (batch, seq_q, d_model).
	attnOut, err = attnOut.Transpose(1, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to merge heads: %w", err)
	}
	attnOut = attnOut.Reshape([]int{batchSize, seqQ, m.DModel})

	// Step 6: Final output projection.
	out, err := tensor.Matmul(attnOut, m.WOut)
	if err != nil {
		return nil, fmt.Errorf("failed to apply output projection: %w", err)
	}
	return out, nil
}

// broadcastMask reshapes an incoming mask so it broadcasts across the
// head dimension of the (batch, h, seq_q, seq_k) score tensor.
func (m *MultiHead) broadcastMask(mask *tensor.Tensor, batchSize, seqQ, seqK int) (*tensor.Tensor, error) {
	if mask == nil {
		return nil, nil
	}
	switch len(mask.Shape) {
	case 2:
		// (seq_q, seq_k) broadcasts over batch and heads as-is.
		return mask, nil
	case 3:
		// (batch, seq_q, seq_k) needs an explicit head axis, otherwise
		// the batch dimension would align against heads.
		if mask.Shape[0] != batchSize {
			return nil, fmt.Errorf("%w: mask batch %d does not match input batch %d",
				tensor.ErrShapeMismatch, mask.Shape[0], batchSize)
		}
		return mask.View([]int{batchSize, 1, mask.Shape[1], mask.Shape[2]})
	case 4:
		return mask, nil
	default:
		return nil, fmt.Errorf("%w: unsupported mask rank %d (shape %v)",
			tensor.ErrShapeMismatch, len(mask.Shape), mask.Shape)
	}
}

// Parameters returns the learnable tensors of this block: the four
// projection matrices.
func (m *MultiHead) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{m.WQuery, m.WKey, m.WValue, m.WOut}
}
