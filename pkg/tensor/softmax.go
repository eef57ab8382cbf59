package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax applies softmax along the specified dimension.
//
// Each slice is stabilized by subtracting its maximum before
// exponentiation, so large scores (or the large negative fill used for
// masking) never overflow.
func Softmax(t *Tensor, dim int) (*Tensor, error) {
	if dim < 0 || dim >= len(t.Shape) {
		return nil, fmt.Errorf("%w: invalid softmax dimension %d for tensor with %d dimensions",
			ErrShapeMismatch, dim, len(t.Shape))
	}

	if dim == len(t.Shape)-1 {
		return softmaxLastDim(t), nil
	}

	// Softmax along an inner dimension: walk strided slices.
	result := NewTensor(t.Shape)
	sliceSize := t.Shape[dim]
	numSlices := len(t.Data) / sliceSize

	offsets := make([]int, len(t.Shape))
	for sliceIdx := 0; sliceIdx < numSlices; sliceIdx++ {
		remaining := sliceIdx
		for i := len(t.Shape) - 1; i >= 0; i-- {
			if i == dim {
				offsets[i] = 0
				continue
			}
			offsets[i] = remaining % t.Shape[i]
			remaining /= t.Shape[i]
		}

		maxVal := math.Inf(-1)
		for i := 0; i < sliceSize; i++ {
			offsets[dim] = i
			if v := t.Data[t.FlatIndex(offsets)]; v > maxVal {
				maxVal = v
			}
		}

		expSum := 0.0
		expVals := make([]float64, sliceSize)
		for i := 0; i < sliceSize; i++ {
			offsets[dim] = i
			expVals[i] = math.Exp(t.Data[t.FlatIndex(offsets)] - maxVal)
			expSum += expVals[i]
		}

		for i := 0; i < sliceSize; i++ {
			offsets[dim] = i
			result.Data[result.FlatIndex(offsets)] = expVals[i] / expSum
		}
	}

	return result, nil
}

// SoftmaxLast applies softmax along the last dimension (convenience function).
func SoftmaxLast(t *Tensor) *Tensor {
	result, err := Softmax(t, len(t.Shape)-1)
	if err != nil {
		panic(err)
	}
	return result
}

// softmaxLastDim is the contiguous fast path: each row is a flat slice,
// so gonum floats reductions apply directly.
func softmaxLastDim(t *Tensor) *Tensor {
	result := NewTensor(t.Shape)
	rowLen := t.Shape[len(t.Shape)-1]

	for offset := 0; offset < len(t.Data); offset += rowLen {
		src := t.Data[offset : offset+rowLen]
		dst := result.Data[offset : offset+rowLen]

		maxVal := floats.Max(src)
		for i, v := range src {
			dst[i] = math.Exp(v - maxVal)
		}
		floats.Scale(1/floats.Sum(dst), dst)
	}
	return result
}

// LogSoftmax applies log-softmax along the last dimension using the
// log-sum-exp identity: out = x - max - log(sum(exp(x - max))).
// The result exponentiates to a distribution summing to 1 per row.
func LogSoftmax(t *Tensor) *Tensor {
	result := NewTensor(t.Shape)
	rowLen := t.Shape[len(t.Shape)-1]

	for offset := 0; offset < len(t.Data); offset += rowLen {
		src := t.Data[offset : offset+rowLen]
		dst := result.Data[offset : offset+rowLen]

		maxVal := floats.Max(src)
		expSum := 0.0
		for _, v := range src {
			expSum += math.Exp(v - maxVal)
		}
		logSumExp := maxVal + math.Log(expSum)
		for i, v := range src {
			dst[i] = v - logSumExp
		}
	}
	return result
}
