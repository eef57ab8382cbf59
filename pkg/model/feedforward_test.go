package model

import (
	"errors"
	"math"
	"testing"

	"seq2seq/pkg/tensor"
)

// TestLinearForward tests the affine map against hand-computed values.
func TestLinearForward(t *testing.T) {
	lin := NewLinear(2, 3)
	// Weight rows: input feature -> output features.
	w := []float64{
		1, 2, 3,
		4, 5, 6,
	}
	copy(lin.Weight.Data, w)
	copy(lin.Bias.Data, []float64{0.5, -0.5, 1})

	x, _ := tensor.FromSlice([]float64{1, 1}, []int{1, 2})
	out, err := lin.Forward(x)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	expected := []float64{5.5, 6.5, 10}
	for i, v := range expected {
		if math.Abs(out.Data[i]-v) > 1e-12 {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], v)
		}
	}
}

// TestLinearShapeErrors tests input validation.
func TestLinearShapeErrors(t *testing.T) {
	lin := NewLinear(4, 2)

	bad := tensor.NewTensor([]int{1, 3})
	if _, err := lin.Forward(bad); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong width, got %v", err)
	}

	vec := tensor.NewTensor([]int{4})
	if _, err := lin.Forward(vec); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for 1D input, got %v", err)
	}
}

// TestFeedForwardRectification tests that the hidden activation clips
// negative values: with identity weights, a negative input never makes
// it through.
func TestFeedForwardRectification(t *testing.T) {
	ff := NewFeedForward(2, 2, 0)
	for i := 0; i < 2; i++ {
		ff.Linear1.Weight.Set([]int{i, i}, 1)
		ff.Linear2.Weight.Set([]int{i, i}, 1)
	}

	x, _ := tensor.FromSlice([]float64{-3, 5}, []int{1, 2})
	out, err := ff.Forward(x, nil)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if out.Data[0] != 0 || out.Data[1] != 5 {
		t.Errorf("Expected (0, 5), got (%v, %v)", out.Data[0], out.Data[1])
	}
}

// TestFeedForwardPositionwise tests that positions do not mix: changing
// one position leaves the others untouched.
func TestFeedForwardPositionwise(t *testing.T) {
	ff := NewFeedForward(4, 8, 0)
	for i := range ff.Linear1.Weight.Data {
		ff.Linear1.Weight.Data[i] = float64(i%5) * 0.1
	}
	for i := range ff.Linear2.Weight.Data {
		ff.Linear2.Weight.Data[i] = float64(i%3) * 0.1
	}

	x := tensor.NewTensor([]int{1, 3, 4})
	for i := range x.Data {
		x.Data[i] = float64(i) * 0.2
	}
	base, err := ff.Forward(x, nil)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	// Perturb position 2 only.
	y := x.Clone()
	for i := 0; i < 4; i++ {
		y.Set([]int{0, 2, i}, -1)
	}
	perturbed, err := ff.Forward(y, nil)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	for pos := 0; pos < 2; pos++ {
		for i := 0; i < 4; i++ {
			if base.Get([]int{0, pos, i}) != perturbed.Get([]int{0, pos, i}) {
				t.Errorf("Position %d changed when only position 2 was perturbed", pos)
			}
		}
	}
}

// TestFeedForwardShape tests width round-tripping.
func TestFeedForwardShape(t *testing.T) {
	ff := NewFeedForward(8, 32, 0)
	x := tensor.NewTensor([]int{2, 5, 8})

	out, err := ff.Forward(x, nil)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if !out.ShapeEquals(x) {
		t.Errorf("Expected shape %v, got %v", x.Shape, out.Shape)
	}

	if n := len(ff.Parameters()); n != 4 {
		t.Errorf("Expected 4 parameters, got %d", n)
	}
}
