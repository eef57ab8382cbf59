package model

import (
	"errors"
	"math"
	"testing"

	"seq2seq/pkg/tensor"
)

// TestEmbeddingLookup tests lookup and sqrt(d_model) scaling.
func TestEmbeddingLookup(t *testing.T) {
	emb := NewEmbedding(5, 4)
	// Give token 2 a recognizable row.
	for i := 0; i < 4; i++ {
		emb.Table.Set([]int{2, i}, float64(i+1))
	}

	out, err := emb.Forward([][]int{{2}})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if out.Shape[0] != 1 || out.Shape[1] != 1 || out.Shape[2] != 4 {
		t.Fatalf("Expected shape [1 1 4], got %v", out.Shape)
	}

	scale := math.Sqrt(4)
	for i := 0; i < 4; i++ {
		want := float64(i+1) * scale
		if got := out.Get([]int{0, 0, i}); math.Abs(got-want) > 1e-12 {
			t.Errorf("out[0][0][%d] = %v, expected %v", i, got, want)
		}
	}
}

// TestEmbeddingBatch tests batched lookup shape.
func TestEmbeddingBatch(t *testing.T) {
	emb := NewEmbedding(10, 8)

	out, err := emb.Forward([][]int{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	wantShape := []int{2, 3, 8}
	for i, d := range wantShape {
		if out.Shape[i] != d {
			t.Fatalf("Expected shape %v, got %v", wantShape, out.Shape)
		}
	}
}

// TestEmbeddingOutOfRange tests that an id at or beyond the vocabulary
// size is rejected, never clamped.
func TestEmbeddingOutOfRange(t *testing.T) {
	emb := NewEmbedding(10, 8)

	if _, err := emb.Forward([][]int{{1, 10, 3}}); !errors.Is(err, tensor.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for id 10 with vocab 10, got %v", err)
	}
	if _, err := emb.Forward([][]int{{-1}}); !errors.Is(err, tensor.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for negative id, got %v", err)
	}

	// Boundary id vocab-1 is valid.
	if _, err := emb.Forward([][]int{{9}}); err != nil {
		t.Errorf("Forward with id 9 failed: %v", err)
	}
}

// TestEmbeddingRaggedBatch tests rejection of unequal sequence lengths.
func TestEmbeddingRaggedBatch(t *testing.T) {
	emb := NewEmbedding(10, 4)

	if _, err := emb.Forward([][]int{{1, 2}, {3}}); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for ragged batch, got %v", err)
	}
	if _, err := emb.Forward([][]int{}); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for empty batch, got %v", err)
	}
	if _, err := emb.Forward([][]int{{}}); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for empty sequence, got %v", err)
	}
}
