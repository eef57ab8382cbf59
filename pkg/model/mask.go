package model

import "seq2seq/pkg/tensor"

// Masks are 0/1 keep-masks: a 1 marks a key position attendable from a
// query position, a 0 marks it masked. Attention replaces masked scores
// with a large negative constant before softmax.

// CausalMask returns a (size, size) lower-triangular mask: query position
// i may attend to key positions j <= i only. It broadcasts over batch and
// head dimensions.
func CausalMask(size int) *tensor.Tensor {
	mask := tensor.NewTensor([]int{size, size})
	for i := 0; i < size; i++ {
		for j := 0; j <= i; j++ {
			mask.Data[i*size+j] = 1
		}
	}
	return mask
}

// PaddingMask returns a (batch, 1, seq) mask with 0 at positions holding
// padID and 1 elsewhere. The singleton query axis broadcasts over all
// query positions.
func PaddingMask(ids [][]int, padID int) *tensor.Tensor {
	batch := len(ids)
	seqLen := 0
	if batch > 0 {
		seqLen = len(ids[0])
	}

	mask := tensor.NewTensor([]int{batch, 1, seqLen})
	for b, seq := range ids {
		for s, id := range seq {
			if id != padID {
				mask.Data[b*seqLen+s] = 1
			}
		}
	}
	return mask
}

// TargetMask combines causal ordering with target-side padding: entry
// (b, i, j) is 1 iff j <= i and ids[b][j] is not padding. Shape:
// (batch, seq, seq).
func TargetMask(ids [][]int, padID int) *tensor.Tensor {
	batch := len(ids)
	seqLen := 0
	if batch > 0 {
		seqLen = len(ids[0])
	}

	mask := tensor.NewTensor([]int{batch, seqLen, seqLen})
	for b, seq := range ids {
		for i := 0; i < seqLen; i++ {
			for j := 0; j <= i; j++ {
				if seq[j] != padID {
					mask.Data[(b*seqLen+i)*seqLen+j] = 1
				}
			}
		}
	}
	return mask
}
